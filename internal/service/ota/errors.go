package ota

import "errors"

// Kind classifies why an update step did not succeed.
type Kind int

// Known failure kinds. KindNoNewVersion is a normal negative result, not a fault.
const (
	KindUnknown Kind = iota
	KindNetworkUnavailable
	KindNoNewVersion
	KindMalformedVersionResponse
	KindProbeNegative
	KindNoLinkedDevice
	KindDirectoryUnavailable
	KindFileUnavailable
	KindNotAnArchive
	KindMissingBinaryEntry
)

// String returns the snake_case name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindNoNewVersion:
		return "no_new_version"
	case KindMalformedVersionResponse:
		return "malformed_version_response"
	case KindProbeNegative:
		return "probe_negative"
	case KindNoLinkedDevice:
		return "no_linked_device"
	case KindDirectoryUnavailable:
		return "directory_unavailable"
	case KindFileUnavailable:
		return "file_unavailable"
	case KindNotAnArchive:
		return "not_an_archive"
	case KindMissingBinaryEntry:
		return "missing_binary_entry"
	default:
		return "unknown"
	}
}

// Error carries a failure kind and the underlying cause, if any.
type Error struct {
	// Kind is the classified failure.
	Kind Kind
	// Err is the underlying cause and may be nil.
	Err error
}

// Sentinels for errors.Is checks against a kind regardless of the cause.
var (
	ErrNetworkUnavailable       = &Error{Kind: KindNetworkUnavailable}
	ErrNoNewVersion             = &Error{Kind: KindNoNewVersion}
	ErrMalformedVersionResponse = &Error{Kind: KindMalformedVersionResponse}
	ErrProbeNegative            = &Error{Kind: KindProbeNegative}
	ErrNoLinkedDevice           = &Error{Kind: KindNoLinkedDevice}
	ErrDirectoryUnavailable     = &Error{Kind: KindDirectoryUnavailable}
	ErrFileUnavailable          = &Error{Kind: KindFileUnavailable}
	ErrNotAnArchive             = &Error{Kind: KindNotAnArchive}
	ErrMissingBinaryEntry       = &Error{Kind: KindMissingBinaryEntry}
)

// newError wraps cause with the provided kind.
func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target carries no cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Err == nil && t.Kind == e.Kind
}

// KindOf extracts the failure kind from err or returns KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
