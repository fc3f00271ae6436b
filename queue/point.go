package queue

import (
	"sync"

	"github.com/windlore/telemetry/packet"
)

// Point is a bounded SPSC queue of packet.SensorValuePoint, used on the
// gateway side to hand decoded readings from the uplink decoder to the
// value sink exporter.
//
// It exposes a two-step, non-blocking producer protocol so the decoder can
// decode directly into queue storage instead of decoding into a temporary
// and copying: TrySlot reserves a slot and returns a pointer into it (or
// nil if the queue is full); once the caller has filled the slot, it calls
// Commit. If TrySlot returns nil, the caller must still consume the bytes
// that would have filled the slot (to keep the decoder's stream position
// correct) but has nothing to commit.
type Point struct {
	mu   sync.Mutex
	buf  []packet.SensorValuePoint
	head int
	size int

	reserved bool
	tail     int
}

// NewPoint creates a Point queue with the given capacity.
func NewPoint(capacity int) *Point {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Point{buf: make([]packet.SensorValuePoint, capacity)}
}

// TrySlot reserves the next free slot, returning a pointer the caller may
// write into, or nil if the queue is full. At most one slot may be
// reserved at a time.
func (q *Point) TrySlot() *packet.SensorValuePoint {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) || q.reserved {
		return nil
	}
	q.tail = (q.head + q.size) % len(q.buf)
	q.reserved = true
	return &q.buf[q.tail]
}

// Commit finalizes the slot last returned by TrySlot, making it visible to
// Dequeue.
func (q *Point) Commit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.reserved {
		return
	}
	q.reserved = false
	q.size++
}

// Dequeue removes and returns the oldest queued point. ok is false if the
// queue was empty.
func (q *Point) Dequeue() (p packet.SensorValuePoint, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return packet.SensorValuePoint{}, false
	}
	p = q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return p, true
}

// Len reports the number of points currently queued.
func (q *Point) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
