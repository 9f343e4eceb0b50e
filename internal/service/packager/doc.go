// Package packager lays out the files an update server publishes for a release.
//
// Paths are derived from the URL templates in the device configuration, so the
// produced tree can be copied verbatim to the web root or bucket the devices query.
package packager
