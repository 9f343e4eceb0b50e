package ota

import (
	"context"
	"time"
)

// Fetcher performs a text query against a URL and returns the response body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Connectivity brings the network up, reporting whether it is usable.
type Connectivity interface {
	EnsureConnected(ctx context.Context) bool
}

// DeviceModelSource returns the model identifier of the current hardware unit.
type DeviceModelSource interface {
	DeviceModel(ctx context.Context) (string, error)
}

// Installer downloads the package at the URL and installs it.
type Installer interface {
	Install(ctx context.Context, rawURL string) error
}

// Reporter receives progress and user-facing messages. It never influences decisions.
type Reporter interface {
	ReportProgress(ctx context.Context, text string, percent int)
	ReportMessage(ctx context.Context, message Message)
}

// Icon selects the look of a user-facing message.
type Icon int

// Message icons.
const (
	IconInformation Icon = iota
	IconWarning
	IconError
)

// String returns the icon name.
func (i Icon) String() string {
	switch i {
	case IconWarning:
		return "warning"
	case IconError:
		return "error"
	default:
		return "information"
	}
}

// Message is a user-facing notification shown for Duration.
type Message struct {
	Icon     Icon
	Title    string
	Text     string
	Duration time.Duration
}
