// Package ws streams live analyzer state to websocket clients.
//
// Every connected client receives the current snapshot immediately on
// connect, then again on every broadcast tick. Slow clients are disconnected
// rather than allowed to stall the hub.
package ws
