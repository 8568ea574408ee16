package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/climascope/climascope/internal/analyzer"
)

// Sender is the part of the MQTT client publishing needs.
type Sender interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// result is the wire format published to the results topic.
type result struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Time        string  `json:"time"`
}

// MQTT publishes measurements to a fixed topic. It implements
// analyzer.Publisher.
type MQTT struct {
	sender Sender
	topic  string
}

// NewMQTT returns an MQTT publisher writing to topic via sender.
func NewMQTT(sender Sender, topic string) *MQTT {
	return &MQTT{sender: sender, topic: topic}
}

// Publish serializes m and sends it to the results topic. Delivery is
// best-effort; the caller decides whether failures matter.
func (p *MQTT) Publish(m analyzer.Measurement) error {
	payload, err := json.Marshal(result{
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Time:        analyzer.FormatTime(m.Timestamp),
	})
	if err != nil {
		return fmt.Errorf("publish: marshal: %w", err)
	}
	if err := p.sender.Publish(context.Background(), p.topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	return nil
}
