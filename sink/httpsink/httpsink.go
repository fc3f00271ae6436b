// Package httpsink publishes decoded sensor readings to an HTTP backend as
// newline-free JSON, one POST per reading, using only net/http.
package httpsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/pkg"
)

// Sink posts each reading as a JSON object to a fixed URL.
type Sink struct {
	url    string
	client *http.Client
}

// New creates a Sink that posts to url using client. If client is nil, a
// client with a 5s timeout is used.
func New(url string, client *http.Client) *Sink {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Sink{url: url, client: client}
}

type reading struct {
	Kind         string  `json:"kind"`
	Value        float32 `json:"value,omitempty"`
	TimeOffset   int64   `json:"time_offset"`
	UnknownID    uint32  `json:"unknown_id,omitempty"`
	UnknownBytes uint32  `json:"unknown_value_len,omitempty"`
}

func toReading(p packet.SensorValuePoint) reading {
	r := reading{TimeOffset: p.TimeOffset}
	switch p.Value.Kind() {
	case packet.KindTemperature:
		r.Kind, r.Value = "temperature", p.Value.Temperature
	case packet.KindPressure:
		r.Kind, r.Value = "pressure", p.Value.Pressure
	case packet.KindAltitude:
		r.Kind, r.Value = "altitude", p.Value.Altitude
	case packet.KindAirQuality:
		r.Kind, r.Value = "air_quality", p.Value.AirQuality
	default:
		r.Kind, r.UnknownID, r.UnknownBytes = "unknown", p.Value.UnknownID, p.Value.UnknownValueLen
	}
	return r
}

// Publish POSTs p as a single JSON object to the configured URL.
func (s *Sink) Publish(ctx context.Context, p packet.SensorValuePoint) error {
	body, err := json.Marshal(toReading(p))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		pkg.LogWarn(pkg.ComponentSink, "http publish failed", "url", s.url, "error", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("httpsink: unexpected status %s", resp.Status)
	}
	return nil
}
