package ota

import (
	"context"
	"errors"
	"time"

	"github.com/looplab/fsm"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
)

// Machine states in the order an update run visits them.
const (
	StateStart             = "start"
	StateNetworkConnect    = "network_connect"
	StateVersionCheck      = "version_check"
	StateDeviceModelLookup = "device_model_lookup"
	StatePrimaryProbe      = "primary_probe"
	StatePrimaryDownload   = "primary_download"
	StateLinkResolve       = "link_resolve"
	StateLinkedProbe       = "linked_probe"
	StateLinkedDownload    = "linked_download"
	StateDone              = "done"
)

const (
	eventConnect        = "connect"
	eventConnected      = "connected"
	eventNewVersion     = "new_version"
	eventModelFound     = "model_found"
	eventPackageFound   = "package_found"
	eventPackageMissing = "package_missing"
	eventLinkFound      = "link_found"
	eventFinish         = "finish"
)

const (
	shortMessageDuration = 2 * time.Second
	longMessageDuration  = 5 * time.Second
)

var errEmptyDeviceModel = errors.New("device model is empty")

// progressStep is the notification emitted when a state is entered.
type progressStep struct {
	text    string
	percent int
}

// progressByState holds progress texts; [DEVICE] is replaced with the active model.
//
//nolint:gochecknoglobals // Read-only lookup table.
var progressByState = map[string]progressStep{
	StateNetworkConnect:    {"Checking network connection...", 0},
	StateVersionCheck:      {"Checking for updates...", 10},
	StateDeviceModelLookup: {"Detecting device model...", 15},
	StatePrimaryProbe:      {"Searching update package for [DEVICE]...", 20},
	StateLinkResolve:       {"Searching twin device for [DEVICE]...", 30},
	StateLinkedProbe:       {"Searching update package for [DEVICE]...", 40},
	StatePrimaryDownload:   {"Downloading package for [DEVICE]...", 50},
	StateLinkedDownload:    {"Downloading package for [DEVICE]...", 50},
	StateDone:              {"Update check finished", 100},
}

// Dependencies are the collaborators an Orchestrator drives.
type Dependencies struct {
	Connectivity   Connectivity
	Fetcher        Fetcher
	Devices        DeviceModelSource
	Installer      Installer
	Reporter       Reporter
	CurrentVersion string
}

// Orchestrator sequences the update decision flow for one device.
// Separate Run calls share no state.
type Orchestrator struct {
	cfg          *config.Config
	connectivity Connectivity
	devices      DeviceModelSource
	installer    Installer
	reporter     Reporter
	oracle       *VersionOracle
	probe        *AvailabilityProbe
	linker       *DeviceLinkResolver
}

// run is the per-invocation state threaded through the machine.
type run struct {
	model   string
	linked  string
	active  string
	url     string
	outcome *Outcome
}

// stepFunc performs the work of a state and names the event to fire next.
type stepFunc func(ctx context.Context, r *run) string

// NewOrchestrator builds the oracle, probe and link resolver from deps.
func NewOrchestrator(cfg *config.Config, deps Dependencies) *Orchestrator {
	reporter := deps.Reporter
	if reporter == nil {
		reporter = LogReporter{}
	}

	return &Orchestrator{
		cfg:          cfg,
		connectivity: deps.Connectivity,
		devices:      deps.Devices,
		installer:    deps.Installer,
		reporter:     reporter,
		oracle:       NewVersionOracle(cfg, deps.Connectivity, deps.Fetcher, deps.CurrentVersion),
		probe:        NewAvailabilityProbe(cfg, deps.Connectivity, deps.Fetcher),
		linker:       NewDeviceLinkResolver(cfg, deps.Connectivity, deps.Fetcher),
	}
}

// Run drives the machine from start to done and returns the terminal outcome.
func (o *Orchestrator) Run(ctx context.Context) *Outcome {
	ctx = logger.WithName(ctx, "orchestrator")

	var (
		r       = new(run)
		machine = o.newMachine()
		steps   = o.steps()
	)

	for machine.Current() != StateDone {
		state := machine.Current()
		event := steps[state](ctx, r)

		if err := machine.Event(ctx, event, r); err != nil {
			logger.ErrorKV(ctx, "Invalid update transition", "state", state, "event", event, "error", err)

			return &Outcome{
				Kind:        OutcomeFailedUpdating,
				State:       state,
				DeviceModel: r.active,
				Err:         err,
			}
		}
	}

	logger.InfoKV(ctx, "Update run finished",
		"outcome", r.outcome.Kind, "state", r.outcome.State, "device", r.outcome.DeviceModel)

	return r.outcome
}

// newMachine creates a fresh state machine for a single run.
func (o *Orchestrator) newMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: eventConnect, Src: []string{StateStart}, Dst: StateNetworkConnect},
		{Name: eventConnected, Src: []string{StateNetworkConnect}, Dst: StateVersionCheck},
		{Name: eventNewVersion, Src: []string{StateVersionCheck}, Dst: StateDeviceModelLookup},
		{Name: eventModelFound, Src: []string{StateDeviceModelLookup}, Dst: StatePrimaryProbe},
		{Name: eventPackageFound, Src: []string{StatePrimaryProbe}, Dst: StatePrimaryDownload},
		{Name: eventPackageMissing, Src: []string{StatePrimaryProbe}, Dst: StateLinkResolve},
		{Name: eventLinkFound, Src: []string{StateLinkResolve}, Dst: StateLinkedProbe},
		{Name: eventPackageFound, Src: []string{StateLinkedProbe}, Dst: StateLinkedDownload},
		{
			Name: eventFinish,
			Src: []string{
				StateNetworkConnect,
				StateVersionCheck,
				StateDeviceModelLookup,
				StatePrimaryDownload,
				StateLinkResolve,
				StateLinkedProbe,
				StateLinkedDownload,
			},
			Dst: StateDone,
		},
	}

	callbacks := fsm.Callbacks{
		"enter_state": o.reportProgress,
	}

	return fsm.NewFSM(StateStart, events, callbacks)
}

// steps maps every non-terminal state to its work.
func (o *Orchestrator) steps() map[string]stepFunc {
	return map[string]stepFunc{
		StateStart:             o.start,
		StateNetworkConnect:    o.connect,
		StateVersionCheck:      o.checkVersion,
		StateDeviceModelLookup: o.lookupDeviceModel,
		StatePrimaryProbe:      o.probePrimary,
		StatePrimaryDownload:   o.download,
		StateLinkResolve:       o.resolveLink,
		StateLinkedProbe:       o.probeLinked,
		StateLinkedDownload:    o.download,
	}
}

// reportProgress emits the notification for the entered state.
func (o *Orchestrator) reportProgress(ctx context.Context, e *fsm.Event) {
	step, ok := progressByState[e.Dst]
	if !ok {
		return
	}

	var active string

	if len(e.Args) > 0 {
		if r, isRun := e.Args[0].(*run); isRun {
			active = r.active
		}
	}

	o.reporter.ReportProgress(ctx, Expand(step.text, active), step.percent)
}

func (o *Orchestrator) start(context.Context, *run) string {
	return eventConnect
}

func (o *Orchestrator) connect(ctx context.Context, r *run) string {
	if !o.connectivity.EnsureConnected(ctx) {
		return o.networkLost(ctx, r, StateNetworkConnect)
	}

	return eventConnected
}

// networkLost ends the run when a step could not reach the network.
func (o *Orchestrator) networkLost(ctx context.Context, r *run, state string) string {
	o.message(ctx, IconError, "Couldn't connect to the network!", shortMessageDuration)

	return r.finish(OutcomeNetworkUnavailable, state, ErrNetworkUnavailable)
}

func (o *Orchestrator) checkVersion(ctx context.Context, r *run) string {
	err := o.oracle.Check(ctx)
	if err == nil {
		return eventNewVersion
	}

	if errors.Is(err, ErrNetworkUnavailable) {
		return o.networkLost(ctx, r, StateVersionCheck)
	}

	o.message(ctx, IconInformation, "You have the latest version.", shortMessageDuration)

	return r.finish(OutcomeUpToDate, StateVersionCheck, err)
}

func (o *Orchestrator) lookupDeviceModel(ctx context.Context, r *run) string {
	model, err := o.devices.DeviceModel(ctx)
	if err == nil && model == "" {
		err = errEmptyDeviceModel
	}

	if err != nil {
		logger.ErrorKV(ctx, "Device model lookup failed", "error", err)
		o.message(ctx, IconError, "Couldn't detect the device model!", shortMessageDuration)

		return r.finish(OutcomeDeviceModelUnavailable, StateDeviceModelLookup, err)
	}

	r.model = model
	r.active = model

	return eventModelFound
}

func (o *Orchestrator) probePrimary(ctx context.Context, r *run) string {
	if err := o.probe.Check(ctx, Expand(o.cfg.TestURLTemplate, r.model)); err != nil {
		return eventPackageMissing
	}

	r.url = Expand(o.cfg.DownloadURLTemplate, r.model)

	return eventPackageFound
}

func (o *Orchestrator) resolveLink(ctx context.Context, r *run) string {
	linked, err := o.linker.Resolve(ctx, r.model)
	if errors.Is(err, ErrNetworkUnavailable) {
		return o.networkLost(ctx, r, StateLinkResolve)
	}

	if err != nil {
		o.message(ctx, IconWarning,
			"Update is not available for your device!\nDevice model: "+r.model, longMessageDuration)

		return r.finish(OutcomeNotAvailableForDevice, StateLinkResolve, err)
	}

	r.linked = linked
	r.active = linked

	return eventLinkFound
}

func (o *Orchestrator) probeLinked(ctx context.Context, r *run) string {
	err := o.probe.Check(ctx, Expand(o.cfg.TestURLTemplate, r.linked))
	if errors.Is(err, ErrNetworkUnavailable) {
		return o.networkLost(ctx, r, StateLinkedProbe)
	}

	if err != nil {
		o.message(ctx, IconError, "Failed updating!", shortMessageDuration)
		return r.finish(OutcomeFailedUpdating, StateLinkedProbe, err)
	}

	r.url = Expand(o.cfg.DownloadURLTemplate, r.linked)

	return eventPackageFound
}

// download hands the selected package to the installer; used by both download states.
func (o *Orchestrator) download(ctx context.Context, r *run) string {
	state := StatePrimaryDownload
	if r.linked != "" {
		state = StateLinkedDownload
	}

	logger.InfoKV(ctx, "Installing update package", "device", r.active, "url", r.url)

	if err := o.installer.Install(ctx, r.url); err != nil {
		logger.ErrorKV(ctx, "Update installation failed", "url", r.url, "error", err)
		o.message(ctx, IconError, "Failed updating!", shortMessageDuration)

		return r.finish(OutcomeInstallFailed, state, err)
	}

	o.message(ctx, IconInformation, "Update installed. Restart the application to use it.", longMessageDuration)

	return r.finish(OutcomeInstalled, state, nil)
}

func (o *Orchestrator) message(ctx context.Context, icon Icon, text string, duration time.Duration) {
	o.reporter.ReportMessage(ctx, Message{
		Icon:     icon,
		Title:    o.cfg.Title,
		Text:     text,
		Duration: duration,
	})
}

// finish records the terminal outcome and returns the closing event.
func (r *run) finish(kind OutcomeKind, state string, err error) string {
	r.outcome = &Outcome{
		Kind:        kind,
		State:       state,
		DeviceModel: r.active,
		URL:         r.url,
		Err:         err,
	}

	return eventFinish
}
