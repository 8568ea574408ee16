package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/climascope/climascope/internal/analyzer"
	"github.com/climascope/climascope/internal/api"
	"github.com/climascope/climascope/internal/store"
)

// --- test helpers -----------------------------------------------------------

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func meas(temp, humid float64, ts time.Time) analyzer.Measurement {
	return analyzer.Measurement{Temperature: temp, Humidity: humid, Timestamp: ts}
}

func newStore() *store.Store {
	return store.New(5*time.Minute, 100)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth_EmptyStore(t *testing.T) {
	h := api.New(newStore())
	rr := get(t, h, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["status"] != "ok" {
		t.Errorf("status field: got %v, want ok", resp["status"])
	}
	if resp["reading_count"].(float64) != 0 {
		t.Errorf("reading_count: got %v, want 0", resp["reading_count"])
	}
}

func TestHealth_Counts(t *testing.T) {
	st := newStore()
	_ = st.Measurement(meas(20, 50, baseTime))
	_ = st.Measurement(meas(21, 51, baseTime.Add(time.Second)))
	_ = st.OutOfRange(meas(35, 50, baseTime.Add(2*time.Second)), "out-of-range measurement at 2024-01-01 12:00:02")

	var resp map[string]interface{}
	decode(t, get(t, api.New(st), "/api/v1/health"), &resp)

	if resp["reading_count"].(float64) != 2 {
		t.Errorf("reading_count: got %v, want 2", resp["reading_count"])
	}
	if resp["anomaly_count"].(float64) != 1 {
		t.Errorf("anomaly_count: got %v, want 1", resp["anomaly_count"])
	}
	if resp["last_seen"] == nil {
		t.Error("last_seen: missing")
	}
}

// --- /api/v1/latest ---------------------------------------------------------

func TestLatest_Empty(t *testing.T) {
	rr := get(t, api.New(newStore()), "/api/v1/latest")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestLatest_ReturnsNewest(t *testing.T) {
	st := newStore()
	_ = st.Measurement(meas(20, 50, baseTime))
	_ = st.Measurement(meas(22.5, 48, baseTime.Add(time.Second)))

	rr := get(t, api.New(st), "/api/v1/latest")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.LatestResponse
	decode(t, rr, &resp)

	if resp.Temperature != 22.5 || resp.Humidity != 48 {
		t.Errorf("latest: got %+v", resp)
	}
	if resp.Timestamp != "2024-01-01T12:00:01Z" {
		t.Errorf("timestamp: got %q", resp.Timestamp)
	}
}

// --- /api/v1/readings -------------------------------------------------------

func TestReadings_OldestFirst(t *testing.T) {
	st := newStore()
	_ = st.Measurement(meas(20, 50, baseTime))
	_ = st.Measurement(meas(21, 51, baseTime.Add(time.Second)))

	rr := get(t, api.New(st), "/api/v1/readings")
	var resp []store.Reading
	decode(t, rr, &resp)

	if len(resp) != 2 {
		t.Fatalf("readings: got %d, want 2", len(resp))
	}
	if resp[0].Temperature != 20 || resp[1].Temperature != 21 {
		t.Errorf("order: got %+v", resp)
	}
}

// --- /api/v1/anomalies ------------------------------------------------------

func TestAnomalies_IncludeContext(t *testing.T) {
	st := newStore()
	_ = st.OutOfRange(meas(35, 50, baseTime), "out-of-range measurement at 2024-01-01 12:00:00")
	_ = st.Context(meas(20, 50, baseTime.Add(-5*time.Second)), "related to 2024-01-01 12:00:00", analyzer.PositionBefore)

	rr := get(t, api.New(st), "/api/v1/anomalies")
	var resp []store.Anomaly
	decode(t, rr, &resp)

	if len(resp) != 1 {
		t.Fatalf("anomalies: got %d, want 1", len(resp))
	}
	if resp[0].Cause == "" {
		t.Error("cause: empty")
	}
	if len(resp[0].Context) != 1 || resp[0].Context[0].Position != analyzer.PositionBefore {
		t.Errorf("context: got %+v", resp[0].Context)
	}
}

// --- /api/v1/snapshot -------------------------------------------------------

func TestSnapshot_FullState(t *testing.T) {
	st := newStore()
	_ = st.Measurement(meas(20, 50, baseTime))
	_ = st.OutOfRange(meas(35, 50, baseTime.Add(time.Second)), "out-of-range measurement at 2024-01-01 12:00:01")

	rr := get(t, api.New(st), "/api/v1/snapshot")
	var resp api.SnapshotResponse
	decode(t, rr, &resp)

	if len(resp.Readings) != 1 {
		t.Errorf("readings: got %d, want 1", len(resp.Readings))
	}
	if len(resp.Anomalies) != 1 {
		t.Errorf("anomalies: got %d, want 1", len(resp.Anomalies))
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		t.Errorf("generated_at: %v", err)
	}
}

// --- method handling --------------------------------------------------------

func TestPost_NotAllowed(t *testing.T) {
	h := api.New(newStore())
	for _, path := range []string{
		"/api/v1/health", "/api/v1/latest", "/api/v1/readings",
		"/api/v1/anomalies", "/api/v1/snapshot",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: got %d, want 405", path, rr.Code)
		}
	}
}
