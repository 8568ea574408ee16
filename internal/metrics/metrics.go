package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Readings counts every reading that reached Ingest.
	Readings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "climascope", Subsystem: "analyzer", Name: "readings_total",
		Help: "Total sensor readings ingested.",
	})

	// OutOfRange counts readings that failed either range check.
	OutOfRange = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "climascope", Subsystem: "analyzer", Name: "out_of_range_total",
		Help: "Total readings classified out of range.",
	})

	// ContextEntries counts context rows recorded for out-of-range events.
	ContextEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "climascope", Subsystem: "analyzer", Name: "context_entries_total",
		Help: "Total context entries recorded around out-of-range events.",
	})

	// MalformedTimestamps counts readings whose timestamp failed to parse and
	// fell back to the current instant.
	MalformedTimestamps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "climascope", Subsystem: "analyzer", Name: "malformed_timestamps_total",
		Help: "Total readings with an unparseable timestamp.",
	})

	// PublishFailures counts failed best-effort publishes of processed readings.
	PublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "climascope", Subsystem: "analyzer", Name: "publish_failures_total",
		Help: "Total failed publishes of processed measurements.",
	})

	// DroppedMessages counts inbound messages discarded before ingestion,
	// either malformed or shed on queue overflow.
	DroppedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "climascope", Subsystem: "transport", Name: "dropped_messages_total",
		Help: "Total inbound messages dropped before ingestion.",
	})
)

func init() {
	prometheus.MustRegister(
		Readings,
		OutOfRange,
		ContextEntries,
		MalformedTimestamps,
		PublishFailures,
		DroppedMessages,
	)
}
