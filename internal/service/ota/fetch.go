package ota

import (
	"context"

	"github.com/oshokin/ota-updater/internal/logger"
)

// fetchBody queries rawURL and treats any transport failure as an empty body.
func fetchBody(ctx context.Context, fetcher Fetcher, rawURL string) string {
	body, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		logger.WarnKV(ctx, "Query failed", "url", rawURL, "error", err)
		return ""
	}

	return body
}
