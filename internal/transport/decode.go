package transport

import (
	"encoding/json"
	"fmt"
)

// Reading is the wire format of a sensor message on the input topic.
// Temperature and humidity are pointers so that absent fields can be told
// apart from zero values.
type Reading struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Time        string   `json:"time"`
}

// Decode parses a raw MQTT payload into a Reading. Messages missing the
// temperature or humidity field are rejected; a missing or malformed
// timestamp is left for the analyzer to handle.
func Decode(payload []byte) (Reading, error) {
	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if r.Temperature == nil {
		return Reading{}, fmt.Errorf("decode reading: missing temperature")
	}
	if r.Humidity == nil {
		return Reading{}, fmt.Errorf("decode reading: missing humidity")
	}
	return r, nil
}
