// Package store keeps a bounded in-memory view of recent readings and
// out-of-range events for the HTTP API and websocket stream. Entries expire
// after a TTL; a background goroutine evicts them.
package store
