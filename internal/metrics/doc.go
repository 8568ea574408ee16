// Package metrics defines the Prometheus counters exported by the analyzer
// process. They are served on the HTTP port at /metrics.
package metrics
