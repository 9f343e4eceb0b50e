// Package metrics records update run results in a private Prometheus registry.
//
// A device has no scrape endpoint, so the registry is flushed to a file in the
// node-exporter textfile format after each run.
package metrics
