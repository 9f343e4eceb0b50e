// Package installer downloads an update package, validates it and applies
// the binary it contains.
//
// The archive is stored in the configured download directory, checked by
// the package validator and the binary entry is applied atomically to the
// target path with go-update.
package installer
