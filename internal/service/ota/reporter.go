package ota

import (
	"context"

	"github.com/oshokin/ota-updater/internal/logger"
)

// LogReporter writes progress and messages to the context logger.
type LogReporter struct{}

// ReportProgress logs the progress text with its percentage.
func (LogReporter) ReportProgress(ctx context.Context, text string, percent int) {
	logger.InfoKV(ctx, text, "progress", percent)
}

// ReportMessage logs the message at a level matching its icon.
func (LogReporter) ReportMessage(ctx context.Context, message Message) {
	kvs := []any{"title", message.Title, "duration", message.Duration}

	switch message.Icon {
	case IconError:
		logger.ErrorKV(ctx, message.Text, kvs...)
	case IconWarning:
		logger.WarnKV(ctx, message.Text, kvs...)
	default:
		logger.InfoKV(ctx, message.Text, kvs...)
	}
}
