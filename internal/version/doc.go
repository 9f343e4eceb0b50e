// Package version exposes build metadata for the updater.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Version doubles as the current build identifier that the
// update check compares with the version published on the server.
package version
