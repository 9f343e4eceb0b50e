package ota

// OutcomeKind is the terminal result of an update run.
type OutcomeKind string

// Terminal results.
const (
	OutcomeNetworkUnavailable     OutcomeKind = "network_unavailable"
	OutcomeUpToDate               OutcomeKind = "up_to_date"
	OutcomeDeviceModelUnavailable OutcomeKind = "device_model_unavailable"
	OutcomeNotAvailableForDevice  OutcomeKind = "not_available_for_device"
	OutcomeFailedUpdating         OutcomeKind = "failed_updating"
	OutcomeInstallFailed          OutcomeKind = "install_failed"
	OutcomeInstalled              OutcomeKind = "installed"
)

// Outcome describes where and why an update run stopped.
type Outcome struct {
	// Kind is the terminal result.
	Kind OutcomeKind
	// State is the machine state the run terminated in.
	State string
	// DeviceModel is the model whose update stream was used last, if known.
	DeviceModel string
	// URL is the package download URL when one was selected.
	URL string
	// Err carries the classified cause for negative results.
	Err error
}

// Succeeded reports whether the run ended without anything left to do.
func (o *Outcome) Succeeded() bool {
	return o.Kind == OutcomeInstalled || o.Kind == OutcomeUpToDate
}
