// Package loopback provides an in-process stand-in for a radio pair, used
// in tests and by the cmd binaries to exercise the LINK and APP layers
// without real hardware. It plays the same role the teacher stack's
// fifo-backed HAL pair plays for USB host/device simulation, adapted to a
// pair of buffered Go channels since both ends live in one process here.
package loopback

import (
	"context"

	"github.com/windlore/telemetry/pkg"
)

const queueDepth = 8

// Radio is one end of a loopback pair. It implements phy.Layer.
type Radio struct {
	name string
	rx   <-chan []byte
	tx   chan<- []byte

	rxBuf   []byte
	pending []byte
}

// NewPair creates two connected Radios; frames written (and flushed) on one
// become readable on the other.
func NewPair() (a, b *Radio) {
	atob := make(chan []byte, queueDepth)
	btoa := make(chan []byte, queueDepth)
	a = &Radio{name: "a", rx: btoa, tx: atob}
	b = &Radio{name: "b", rx: atob, tx: btoa}
	return a, b
}

// Read blocks until a frame sent by the peer is available.
func (r *Radio) Read(ctx context.Context) error {
	select {
	case frame := <-r.rx:
		r.rxBuf = frame
		pkg.LogDebug(pkg.ComponentPHY, "loopback frame received", "radio", r.name, "bytes", len(frame))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RxBuffer returns the last frame delivered by Read.
func (r *Radio) RxBuffer() []byte {
	return r.rxBuf
}

// Write appends p to the pending transmit buffer.
func (r *Radio) Write(p []byte) (int, error) {
	r.pending = append(r.pending, p...)
	return len(p), nil
}

// Flush sends the pending buffer to the peer as one frame.
func (r *Radio) Flush(ctx context.Context) error {
	frame := r.pending
	r.pending = nil
	select {
	case r.tx <- frame:
		pkg.LogDebug(pkg.ComponentPHY, "loopback frame sent", "radio", r.name, "bytes", len(frame))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
