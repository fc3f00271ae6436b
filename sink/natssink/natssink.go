// Package natssink publishes decoded sensor readings to a NATS subject,
// one message per reading, for deployments that front the gateway with a
// message bus instead of a bare HTTP backend.
package natssink

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/pkg"
)

// Sink publishes each reading as a JSON-encoded message to a fixed subject
// on an existing NATS connection. Sink does not own the connection's
// lifecycle; the caller is responsible for closing it.
type Sink struct {
	conn    *nats.Conn
	subject string
}

// New creates a Sink publishing to subject over conn.
func New(conn *nats.Conn, subject string) *Sink {
	return &Sink{conn: conn, subject: subject}
}

type message struct {
	Kind            uint32  `json:"kind"`
	Temperature     float32 `json:"temperature,omitempty"`
	Pressure        float32 `json:"pressure,omitempty"`
	Altitude        float32 `json:"altitude,omitempty"`
	AirQuality      float32 `json:"air_quality,omitempty"`
	UnknownID       uint32  `json:"unknown_id,omitempty"`
	UnknownValueLen uint32  `json:"unknown_value_len,omitempty"`
	TimeOffset      int64   `json:"time_offset"`
}

// Publish encodes p and publishes it to the configured subject. NATS
// publish is fire-and-forget; ctx is honoured only insofar as it is
// already cancelled, since *nats.Conn.Publish does not block on the
// network.
func (s *Sink) Publish(ctx context.Context, p packet.SensorValuePoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := p.Value
	msg := message{
		Kind:            v.Kind(),
		Temperature:     v.Temperature,
		Pressure:        v.Pressure,
		Altitude:        v.Altitude,
		AirQuality:      v.AirQuality,
		UnknownID:       v.UnknownID,
		UnknownValueLen: v.UnknownValueLen,
		TimeOffset:      p.TimeOffset,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		pkg.LogWarn(pkg.ComponentSink, "nats publish failed", "subject", s.subject, "error", err)
		return err
	}
	return nil
}
