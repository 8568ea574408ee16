package transport

import (
	"context"
	"log/slog"

	"github.com/climascope/climascope/internal/analyzer"
	"github.com/climascope/climascope/internal/metrics"
)

// Subscriber is the part of the MQTT client the listener needs.
type Subscriber interface {
	Handle(topic string, h func(payload []byte))
}

// Listener feeds decoded readings from an MQTT topic into the analyzer.
// MQTT handler callbacks enqueue onto a bounded channel; a single worker
// goroutine drains it, so Ingest is never called concurrently.
type Listener struct {
	an    *analyzer.Analyzer
	queue chan Reading
}

// NewListener registers a handler for topic on sub and returns a Listener
// whose worker must be started with Run. queueSize bounds the number of
// readings buffered between the MQTT callback and the analyzer; messages
// arriving while the queue is full are dropped.
func NewListener(sub Subscriber, topic string, queueSize int, an *analyzer.Analyzer) *Listener {
	l := &Listener{
		an:    an,
		queue: make(chan Reading, queueSize),
	}
	sub.Handle(topic, l.receive)
	return l
}

func (l *Listener) receive(payload []byte) {
	r, err := Decode(payload)
	if err != nil {
		metrics.DroppedMessages.Inc()
		slog.Warn("transport: dropping malformed message", "err", err)
		return
	}
	select {
	case l.queue <- r:
	default:
		metrics.DroppedMessages.Inc()
		slog.Warn("transport: queue full, dropping reading")
	}
}

// Run drains the queue until ctx is cancelled. Analyzer errors are recorder
// failures; they are logged and processing continues.
func (l *Listener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-l.queue:
			if err := l.an.Ingest(*r.Temperature, *r.Humidity, r.Time); err != nil {
				slog.Error("transport: ingest failed", "err", err)
			}
		}
	}
}
