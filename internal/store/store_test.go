package store

import (
	"sync"
	"testing"
	"time"

	"github.com/climascope/climascope/internal/analyzer"
)

func meas(temp, humid float64, ts time.Time) analyzer.Measurement {
	return analyzer.Measurement{Temperature: temp, Humidity: humid, Timestamp: ts}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestMeasurementAndLatest(t *testing.T) {
	st := New(5*time.Minute, 100)
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := st.Latest(); ok {
		t.Fatal("Latest on empty store: expected false")
	}

	_ = st.Measurement(meas(20, 50, ts))
	_ = st.Measurement(meas(21, 51, ts.Add(time.Second)))

	r, ok := st.Latest()
	if !ok {
		t.Fatal("Latest: expected reading, got none")
	}
	if r.Temperature != 21 || r.Humidity != 51 {
		t.Errorf("Latest: got %+v", r)
	}
}

func TestMeasurement_CapsOldest(t *testing.T) {
	st := New(5*time.Minute, 3)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_ = st.Measurement(meas(float64(i), 50, base.Add(time.Duration(i)*time.Second)))
	}

	got := st.Readings()
	if len(got) != 3 {
		t.Fatalf("Readings after cap: got %d, want 3", len(got))
	}
	if got[0].Temperature != 2 || got[2].Temperature != 4 {
		t.Errorf("cap kept wrong readings: %+v", got)
	}
}

func TestOutOfRange_ContextAttaches(t *testing.T) {
	st := New(5*time.Minute, 100)
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	_ = st.OutOfRange(meas(35, 50, ts), "out-of-range measurement at 2024-01-01 12:00:00")
	_ = st.Context(meas(20, 50, ts.Add(-5*time.Second)), "related to 2024-01-01 12:00:00", analyzer.PositionBefore)
	_ = st.Context(meas(35, 50, ts), "related to 2024-01-01 12:00:00", analyzer.PositionExact)

	anomalies := st.Anomalies()
	if len(anomalies) != 1 {
		t.Fatalf("Anomalies: got %d, want 1", len(anomalies))
	}
	a := anomalies[0]
	if a.Temperature != 35 {
		t.Errorf("anomaly temperature: got %v", a.Temperature)
	}
	if len(a.Context) != 2 {
		t.Fatalf("context entries: got %d, want 2", len(a.Context))
	}
	if a.Context[0].Position != analyzer.PositionBefore {
		t.Errorf("context[0].Position: got %q", a.Context[0].Position)
	}
	if a.Context[1].Position != analyzer.PositionExact {
		t.Errorf("context[1].Position: got %q", a.Context[1].Position)
	}
}

func TestContext_NoAnomalyIsNoOp(t *testing.T) {
	st := New(5*time.Minute, 100)
	if err := st.Context(meas(20, 50, time.Now()), "related to x", analyzer.PositionBefore); err != nil {
		t.Fatalf("Context without anomaly: %v", err)
	}
	if _, n := st.Counts(); n != 0 {
		t.Errorf("anomaly count: got %d, want 0", n)
	}
}

func TestReadings_ExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 100)

	st.now = fixedClock(base.Add(-10 * time.Minute)) // stale
	_ = st.Measurement(meas(1, 1, base.Add(-10*time.Minute)))

	st.now = fixedClock(base) // live
	_ = st.Measurement(meas(2, 2, base))

	st.now = fixedClock(base)
	got := st.Readings()
	if len(got) != 1 {
		t.Fatalf("Readings: got %d, want 1", len(got))
	}
	if got[0].Temperature != 2 {
		t.Errorf("Readings[0]: got %+v", got[0])
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 100)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	_ = st.Measurement(meas(1, 1, base))
	_ = st.OutOfRange(meas(99, 1, base), "out-of-range")

	st.now = fixedClock(base)
	_ = st.Measurement(meas(2, 2, base))

	removed := st.Evict(base)
	if removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	readings, anomalies := st.Counts()
	if readings != 1 || anomalies != 0 {
		t.Errorf("Counts after evict: readings %d anomalies %d", readings, anomalies)
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 100)

	st.now = fixedClock(base)
	_ = st.Measurement(meas(1, 1, base))

	if removed := st.Evict(base); removed != 0 {
		t.Errorf("Evict on live entry: removed %d, want 0", removed)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(5*time.Minute, 100)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = st.Measurement(meas(20, 50, time.Now()))
		}()
		go func() {
			defer wg.Done()
			st.Readings()
		}()
		go func() {
			defer wg.Done()
			st.Latest()
		}()
	}
	wg.Wait()
}
