// Package config defines updater settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the version endpoint, the device URL templates with
// their [DEVICE] placeholder, the expected package layout and the S3
// credentials used for s3:// endpoints.
package config
