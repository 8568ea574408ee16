package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/climascope/climascope/internal/analyzer"
)

// Reading is a recorded measurement together with the time it arrived.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ContextEntry is a measurement surrounding an anomaly, labeled with its
// position relative to the triggering reading.
type ContextEntry struct {
	Temperature float64           `json:"temperature"`
	Humidity    float64           `json:"humidity"`
	Timestamp   time.Time         `json:"timestamp"`
	Position    analyzer.Position `json:"position"`
}

// Anomaly is an out-of-range event with its surrounding context entries.
type Anomaly struct {
	Temperature float64        `json:"temperature"`
	Humidity    float64        `json:"humidity"`
	Timestamp   time.Time      `json:"timestamp"`
	Cause       string         `json:"cause"`
	ReceivedAt  time.Time      `json:"received_at"`
	Context     []ContextEntry `json:"context"`
}

// Store is a thread-safe in-memory view of recent activity. It implements
// analyzer.Recorder so it can sit next to the CSV recorder in a fan-out.
// A background goroutine (Run) periodically evicts entries older than the TTL.
type Store struct {
	mu          sync.RWMutex
	readings    []Reading
	anomalies   []Anomaly
	ttl         time.Duration
	maxReadings int
	now         func() time.Time // injectable for deterministic tests
}

// New creates a Store holding at most maxReadings readings, each expiring
// after ttl.
func New(ttl time.Duration, maxReadings int) *Store {
	return &Store{
		ttl:         ttl,
		maxReadings: maxReadings,
		now:         time.Now,
	}
}

// Measurement records a reading, dropping the oldest when the cap is reached.
func (s *Store) Measurement(m analyzer.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, Reading{
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Timestamp:   m.Timestamp,
		ReceivedAt:  s.now(),
	})
	if len(s.readings) > s.maxReadings {
		s.readings = s.readings[len(s.readings)-s.maxReadings:]
	}
	return nil
}

// OutOfRange records an anomaly. Context entries reported afterwards attach
// to it.
func (s *Store) OutOfRange(m analyzer.Measurement, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomalies = append(s.anomalies, Anomaly{
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Timestamp:   m.Timestamp,
		Cause:       cause,
		ReceivedAt:  s.now(),
	})
	if len(s.anomalies) > s.maxReadings {
		s.anomalies = s.anomalies[len(s.anomalies)-s.maxReadings:]
	}
	return nil
}

// Context attaches a context entry to the most recent anomaly. The analyzer
// always reports the anomaly before its context, so relatedTo is implied.
func (s *Store) Context(m analyzer.Measurement, _ string, position analyzer.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.anomalies) == 0 {
		return nil
	}
	last := &s.anomalies[len(s.anomalies)-1]
	last.Context = append(last.Context, ContextEntry{
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Timestamp:   m.Timestamp,
		Position:    position,
	})
	return nil
}

// Latest returns the most recent reading, if any.
func (s *Store) Latest() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return Reading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// Readings returns all readings received within the TTL, oldest first.
func (s *Store) Readings() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Reading, 0, len(s.readings))
	for _, r := range s.readings {
		if r.ReceivedAt.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Anomalies returns all anomalies received within the TTL, oldest first.
func (s *Store) Anomalies() []Anomaly {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Anomaly, 0, len(s.anomalies))
	for _, a := range s.anomalies {
		if a.ReceivedAt.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// Counts returns the number of readings and anomalies currently held,
// including stale entries not yet evicted.
func (s *Store) Counts() (readings, anomalies int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings), len(s.anomalies)
}

// Evict removes entries received before now minus TTL. It returns the number
// of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0

	i := 0
	for i < len(s.readings) && !s.readings[i].ReceivedAt.After(cutoff) {
		i++
	}
	removed += i
	s.readings = s.readings[i:]

	j := 0
	for j < len(s.anomalies) && !s.anomalies[j].ReceivedAt.After(cutoff) {
		j++
	}
	removed += j
	s.anomalies = s.anomalies[j:]

	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale entries", "count", n)
			}
		}
	}
}
