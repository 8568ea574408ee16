package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/climascope/climascope/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads live state from the store and returns JSON responses.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given store and registers all routes.
func New(st *store.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/latest", h.latest)
	h.mux.HandleFunc("/api/v1/readings", h.readings)
	h.mux.HandleFunc("/api/v1/anomalies", h.anomalies)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: liveness plus live entry counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:       "ok",
		ReadingCount: len(h.store.Readings()),
		AnomalyCount: len(h.store.Anomalies()),
	}
	if latest, ok := h.store.Latest(); ok {
		resp.LastSeen = latest.ReceivedAt.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// latest returns GET /api/v1/latest: the most recent reading.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	latest, ok := h.store.Latest()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no readings yet")
		return
	}
	jsonResp(w, http.StatusOK, LatestResponse{
		Temperature: latest.Temperature,
		Humidity:    latest.Humidity,
		Timestamp:   latest.Timestamp.UTC().Format(time.RFC3339),
		ReceivedAt:  latest.ReceivedAt.UTC().Format(time.RFC3339),
	})
}

// readings returns GET /api/v1/readings: all live readings, oldest first.
func (h *Handler) readings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.Readings())
}

// anomalies returns GET /api/v1/anomalies: live out-of-range events with
// their context entries, oldest first.
func (h *Handler) anomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.Anomalies())
}

// snapshot returns GET /api/v1/snapshot: full JSON dump of the live state.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// BuildSnapshot assembles the full live state. The websocket hub broadcasts
// the same shape.
func BuildSnapshot(st *store.Store) SnapshotResponse {
	return SnapshotResponse{
		Readings:    st.Readings(),
		Anomalies:   st.Anomalies(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
