// Package common holds the collaborators shared by the update services.
//
// It provides the HTTP and S3 transports behind a scheme router, the TCP
// connectivity gate and the device model source.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
