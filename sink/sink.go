package sink

import (
	"context"

	"github.com/windlore/telemetry/packet"
)

// Sink publishes one decoded sensor reading to a downstream backend. A
// Sink must be safe to call repeatedly from a single gateway driver
// goroutine; concurrent calls from multiple goroutines are not required.
type Sink interface {
	Publish(ctx context.Context, p packet.SensorValuePoint) error
}

// Multi fans a reading out to every underlying sink, returning the first
// error encountered (if any) after attempting all of them.
type Multi []Sink

// Publish implements Sink by publishing to every member of m in order.
func (m Multi) Publish(ctx context.Context, p packet.SensorValuePoint) error {
	var first error
	for _, s := range m {
		if err := s.Publish(ctx, p); err != nil && first == nil {
			first = err
		}
	}
	return first
}
