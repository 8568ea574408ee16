package analyzer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/climascope/climascope/internal/metrics"
)

// Default window constants. The retention horizon must exceed the context
// window so the buffer always holds enough history for any single trigger.
const (
	DefaultRetention     = 60 * time.Second
	DefaultContextWindow = 30 * time.Second
)

// Position labels where a context reading falls relative to its trigger.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
	PositionExact  Position = "exact"
)

// Recorder is the durable sink for the three append-only logical tables the
// engine writes: measurements, out-of-range events, and context entries.
// Each table is initialized once at process start, before ingestion begins.
type Recorder interface {
	Measurement(m Measurement) error
	OutOfRange(m Measurement, cause string) error
	Context(m Measurement, relatedTo string, position Position) error
}

// Publisher emits every processed measurement to downstream consumers.
// Delivery is best-effort; failures do not affect the engine's own state.
type Publisher interface {
	Publish(m Measurement) error
}

// Ranges holds the inclusive acceptable ranges for classification.
type Ranges struct {
	TempMin  float64
	TempMax  float64
	HumidMin float64
	HumidMax float64
}

// TemperatureOK reports whether t is inside the acceptable temperature range.
// Both boundaries are inclusive.
func (r Ranges) TemperatureOK(t float64) bool {
	return t >= r.TempMin && t <= r.TempMax
}

// HumidityOK reports whether h is inside the acceptable humidity range.
// Both boundaries are inclusive.
func (r Ranges) HumidityOK(h float64) bool {
	return h >= r.HumidMin && h <= r.HumidMax
}

// Options configures an Analyzer.
type Options struct {
	Ranges        Ranges
	Retention     time.Duration // rolling buffer horizon
	ContextWindow time.Duration // ± window around an out-of-range trigger
}

// Analyzer converts raw readings into recorded and published outputs, using
// a rolling history to furnish surrounding context for anomalies.
//
// Ingest must not be called concurrently; the buffer is single-writer.
type Analyzer struct {
	opts Options
	rec  Recorder
	pub  Publisher

	buf []Measurement    // time-ordered, newest last
	now func() time.Time // injectable for deterministic tests
}

// New creates an Analyzer writing to rec and publishing to pub.
// Zero Retention or ContextWindow fall back to the defaults.
func New(opts Options, rec Recorder, pub Publisher) *Analyzer {
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = DefaultContextWindow
	}
	return &Analyzer{opts: opts, rec: rec, pub: pub, now: time.Now}
}

// Ingest processes one raw reading end to end: parse the timestamp, record
// the measurement, maintain the rolling buffer, classify, emit context for
// out-of-range readings, and publish.
//
// A malformed rawTime never fails the call; the current instant is
// substituted. Recorder failures are joined into the returned error after
// all side effects have run; buffer state is updated regardless. Publish
// failures are logged, not returned.
func (a *Analyzer) Ingest(temperature, humidity float64, rawTime string) error {
	ts, ok := ParseTime(rawTime, a.now())
	if !ok {
		slog.Warn("analyzer: invalid time format, using current time", "raw", rawTime)
		metrics.MalformedTimestamps.Inc()
	}
	m := Measurement{Temperature: temperature, Humidity: humidity, Timestamp: ts}

	var errs []error
	if err := a.rec.Measurement(m); err != nil {
		errs = append(errs, fmt.Errorf("record measurement: %w", err))
	}
	metrics.Readings.Inc()

	a.buf = append(a.buf, m)
	a.evict(ts)

	// Both checks are evaluated independently; either failing marks the
	// reading out of range.
	tempOK := a.opts.Ranges.TemperatureOK(temperature)
	humidOK := a.opts.Ranges.HumidityOK(humidity)
	if !tempOK || !humidOK {
		if err := a.emitContext(m); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.pub.Publish(m); err != nil {
		// The measurement is already recorded; a failed publish only affects
		// downstream freshness.
		slog.Warn("analyzer: publish failed", "err", err)
		metrics.PublishFailures.Inc()
	}
	return errors.Join(errs...)
}

// evict drops buffer entries older than the retention horizon relative to
// newest. Entries exactly at the boundary are retained. Arrival order is
// non-decreasing in time, so trimming from the front is sufficient.
func (a *Analyzer) evict(newest time.Time) {
	cutoff := newest.Add(-a.opts.Retention)
	i := 0
	for i < len(a.buf) && a.buf[i].Timestamp.Before(cutoff) {
		i++
	}
	a.buf = a.buf[i:]
}

// emitContext records the out-of-range event for trigger, then every
// buffered reading within the context window as a labeled context entry.
// The trigger itself is in the buffer and is recorded with position exact;
// the "after" side only covers readings that have already arrived.
func (a *Analyzer) emitContext(trigger Measurement) error {
	metrics.OutOfRange.Inc()

	var errs []error
	cause := fmt.Sprintf("out-of-range measurement at %s", FormatTime(trigger.Timestamp))
	if err := a.rec.OutOfRange(trigger, cause); err != nil {
		errs = append(errs, fmt.Errorf("record out-of-range: %w", err))
	}

	relatedTo := fmt.Sprintf("related to %s", FormatTime(trigger.Timestamp))
	from := trigger.Timestamp.Add(-a.opts.ContextWindow)
	to := trigger.Timestamp.Add(a.opts.ContextWindow)

	for _, m := range a.buf {
		if m.Timestamp.Before(from) || m.Timestamp.After(to) {
			continue
		}
		var pos Position
		switch {
		case m.Timestamp.Before(trigger.Timestamp):
			pos = PositionBefore
		case m.Timestamp.After(trigger.Timestamp):
			pos = PositionAfter
		default:
			pos = PositionExact
		}
		if err := a.rec.Context(m, relatedTo, pos); err != nil {
			errs = append(errs, fmt.Errorf("record context: %w", err))
			continue
		}
		metrics.ContextEntries.Inc()
	}
	return errors.Join(errs...)
}
