// Package mqtt wraps eclipse/paho.golang with a reconnecting MQTT v5 client.
//
// Topic handlers are registered with Handle before Run starts; Run maintains
// the broker connection, re-subscribing after every reconnect with truncated
// exponential backoff. Publish is best-effort and fails fast while the
// connection is down.
package mqtt
