package phy

import "context"

// Layer is the radio-facing side of the stack. A call to Read blocks until
// one inbound frame is available (or ctx is done) and makes it visible
// through RxBuffer; Write appends to an internal transmit buffer that
// Flush sends as a single outbound frame.
//
// Layer implementations are single-owner: the LINK above never calls Read,
// Write, or Flush concurrently on the same Layer.
type Layer interface {
	// Read waits for the next inbound frame, replacing the buffer returned
	// by RxBuffer. It returns ctx.Err() if ctx is cancelled first.
	Read(ctx context.Context) error

	// RxBuffer returns the most recently received frame. The returned
	// slice is valid until the next call to Read.
	RxBuffer() []byte

	// Write appends p to the pending transmit buffer. It never blocks on
	// the radio; call Flush to actually transmit.
	Write(p []byte) (int, error)

	// Flush transmits the pending buffer as one frame and clears it. It
	// returns ctx.Err() if ctx is cancelled before the frame is sent.
	Flush(ctx context.Context) error
}
