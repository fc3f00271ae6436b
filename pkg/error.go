package pkg

import "errors"

// Protocol errors shared by the codec, link, and app layers.
var (
	// ErrDecode indicates a malformed byte stream: a bad tag, a length
	// underflow, or a LEB128 encoding that ran past its maximum byte count.
	ErrDecode = errors.New("decoding error")

	// ErrTimeout indicates an ack or handshake deadline expired.
	ErrTimeout = errors.New("timeout exceeded")

	// ErrCancelled indicates a suspension point was abandoned via context
	// cancellation before it completed.
	ErrCancelled = errors.New("operation cancelled")

	// ErrAuth indicates a LinkPacket failed HMAC verification.
	ErrAuth = errors.New("signature mismatch")

	// ErrShortFrame indicates a PHY frame was too small to contain a LINK
	// header.
	ErrShortFrame = errors.New("frame too short")

	// ErrBufferTooSmall indicates the caller's buffer cannot hold the
	// requested data.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrInvalidParameter indicates an invalid configuration value or
	// argument was supplied.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrQueueFull indicates a bounded SPSC queue had no free slot; the
	// newest value is dropped per the queue's overflow discipline.
	ErrQueueFull = errors.New("queue full")

	// ErrQueueEmpty indicates a non-blocking dequeue found nothing to
	// return.
	ErrQueueEmpty = errors.New("queue empty")

	// ErrSessionReset indicates the LINK returned to the Handshake phase,
	// invalidating any session id the caller was using.
	ErrSessionReset = errors.New("session reset")

	// ErrNotRunning indicates an operation was attempted on a driver loop
	// that was never started.
	ErrNotRunning = errors.New("not running")

	// ErrAlreadyRunning indicates a driver loop was started twice.
	ErrAlreadyRunning = errors.New("already running")
)
