// Package transport connects the MQTT input topic to the analyzer.
//
// Incoming messages are decoded, pushed onto a bounded queue, and consumed by
// a single worker goroutine so the analyzer only ever sees one reading at a
// time. Malformed messages and queue overflow are counted and dropped, never
// fatal.
package transport
