package ota

import (
	"context"
	"errors"

	"github.com/oshokin/ota-updater/internal/config"
)

var errTestFetch = errors.New("test fetch error")

// fakeConnectivity reports a fixed connectivity state and counts checks.
type fakeConnectivity struct {
	// connected is returned by every EnsureConnected call.
	connected bool
	// calls counts EnsureConnected invocations.
	calls int
}

func (f *fakeConnectivity) EnsureConnected(context.Context) bool {
	f.calls++

	return f.connected
}

// fakeFetcher serves canned bodies keyed by URL and records every request.
type fakeFetcher struct {
	// bodies maps URLs to the response body.
	bodies map[string]string
	// errs maps URLs to a transport error.
	errs map[string]error
	// requests lists fetched URLs in order.
	requests []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	f.requests = append(f.requests, rawURL)

	if err, ok := f.errs[rawURL]; ok {
		return "", err
	}

	return f.bodies[rawURL], nil
}

// fakeDevices returns a fixed device model.
type fakeDevices struct {
	model string
	err   error
	calls int
}

func (f *fakeDevices) DeviceModel(context.Context) (string, error) {
	f.calls++

	return f.model, f.err
}

// fakeInstaller records install requests.
type fakeInstaller struct {
	urls []string
	err  error
}

func (f *fakeInstaller) Install(_ context.Context, rawURL string) error {
	f.urls = append(f.urls, rawURL)

	return f.err
}

// progressCall is one recorded progress notification.
type progressCall struct {
	text    string
	percent int
}

// recordingReporter keeps every notification for assertions.
type recordingReporter struct {
	progress []progressCall
	messages []Message
}

func (r *recordingReporter) ReportProgress(_ context.Context, text string, percent int) {
	r.progress = append(r.progress, progressCall{text: text, percent: percent})
}

func (r *recordingReporter) ReportMessage(_ context.Context, message Message) {
	r.messages = append(r.messages, message)
}

// testConfig returns a validated configuration pointing at example.com.
func testConfig() *config.Config {
	cfg := &config.Config{
		VersionURL:          "https://updates.example.com/version.txt",
		LinkURLTemplate:     "https://updates.example.com/link/[DEVICE].txt",
		TestURLTemplate:     "https://updates.example.com/[DEVICE]/test.txt",
		DownloadURLTemplate: "https://updates.example.com/[DEVICE]/update.zip",
		ExistsSentinel:      "exists",
		MaxVersionLength:    12,
	}

	if err := config.Validate(cfg); err != nil {
		panic(err)
	}

	return cfg
}
