package api

import "github.com/climascope/climascope/internal/store"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	ReadingCount int    `json:"reading_count"`
	AnomalyCount int    `json:"anomaly_count"`
	LastSeen     string `json:"last_seen,omitempty"` // RFC3339
}

// LatestResponse is the payload for GET /api/v1/latest.
type LatestResponse struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   string  `json:"timestamp"`   // measurement time, RFC3339
	ReceivedAt  string  `json:"received_at"` // RFC3339
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and for each
// websocket broadcast frame.
type SnapshotResponse struct {
	Readings    []store.Reading `json:"readings"`
	Anomalies   []store.Anomaly `json:"anomalies"`
	GeneratedAt string          `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
