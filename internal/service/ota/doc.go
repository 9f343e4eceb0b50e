// Package ota resolves over-the-air updates for the current device.
//
// It checks the published version, probes the update server for a package
// built for the device model or for a linked device model, validates a
// downloaded package archive and drives the whole flow through a finite
// state machine that ends in a single Outcome. Network, filesystem and UI
// access go through small capability interfaces so every step can be
// exercised with fakes.
package ota
