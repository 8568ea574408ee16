// Package recorder provides analyzer.Recorder implementations.
//
// CSV writes the three append-only tables (measurements, out-of-range
// events, context entries) as CSV files that are truncated and re-headed
// once at process start. Multi fans records out to several recorders so the
// durable CSV sink and the in-memory live store both observe the stream.
package recorder
