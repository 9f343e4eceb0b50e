// Package updater wires configuration, transports and the update orchestrator
// into the entry points used by the CLI.
//
// A marker file guards against parallel runs. A marker older than its lifetime
// is treated as left behind by a hung updater: the stale process is killed and
// the marker removed.
package updater
