package analyzer

import "time"

// TimeLayout is the wall-clock timestamp format used on the wire and in the
// recorder tables. One-second resolution.
const TimeLayout = "2006-01-02 15:04:05"

// Measurement is one sampled (temperature, humidity, timestamp) reading.
// Immutable once created.
type Measurement struct {
	Temperature float64
	Humidity    float64
	Timestamp   time.Time
}

// ParseTime parses raw against TimeLayout. On failure it returns the given
// fallback instant and false; ingestion never fails on a malformed timestamp,
// it substitutes the current time and proceeds.
func ParseTime(raw string, fallback time.Time) (time.Time, bool) {
	t, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return fallback, false
	}
	return t, true
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
