package link

import (
	"bytes"
	"context"
	"time"

	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/phy"
	"github.com/windlore/telemetry/pkg"
)

// SensorLink is the sensor-side LINK. Before any Data-phase traffic can
// flow it negotiates a session id with the gateway: it sends an opaque
// identity token in Handshake phase and expects the gateway to echo that
// same token back, paired with the id it has been assigned.
type SensorLink struct {
	phy    phy.Layer
	secret []byte

	// identity is the proof-of-possession token this board presents during
	// handshake (a stand-in for the Rust original's radio MAC address).
	identity []byte

	handshakeTimeout    time.Duration
	handshakeRetryDelay time.Duration
	metrics             *metrics.Registry

	connected  bool
	sessionID  uint8
	payload    []byte
	payloadPos int
	txBuf      []byte
}

// NewSensorLink wraps p, authenticating frames with secret and presenting
// identity during handshake. handshakeTimeout bounds each handshake
// attempt; handshakeRetryDelay is the pause between failed attempts.
func NewSensorLink(p phy.Layer, secret, identity []byte, handshakeTimeout, handshakeRetryDelay time.Duration) *SensorLink {
	return &SensorLink{
		phy:                 p,
		secret:              secret,
		identity:            identity,
		handshakeTimeout:    handshakeTimeout,
		handshakeRetryDelay: handshakeRetryDelay,
	}
}

// SetMetrics attaches a metrics registry that frame and reset counters are
// recorded against. A nil registry (the default) disables instrumentation.
func (s *SensorLink) SetMetrics(m *metrics.Registry) {
	s.metrics = m
}

// Reset forgets the negotiated session id, returning the link to
// Handshake phase.
func (s *SensorLink) Reset() {
	s.connected = false
	s.payload = nil
	s.payloadPos = 0
	s.txBuf = s.txBuf[:0]
	s.metrics.IncSessionResets()
	pkg.LogInfo(pkg.ComponentLink, "sensor link reset")
}

// connect ensures a session id has been negotiated, retrying the
// handshake until it succeeds or ctx is cancelled.
func (s *SensorLink) connect(ctx context.Context) (uint8, error) {
	if s.connected {
		return s.sessionID, nil
	}
	for {
		id, ok, err := s.tryConnect(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			s.connected = true
			s.sessionID = id
			pkg.LogInfo(pkg.ComponentLink, "connected to gateway", "sessionID", id)
			return id, nil
		}
		pkg.LogInfo(pkg.ComponentLink, "handshake failed, retrying", "delay", s.handshakeRetryDelay)
		if err := sleep(ctx, s.handshakeRetryDelay); err != nil {
			return 0, err
		}
	}
}

// tryConnect makes one handshake attempt, returning ok=false (not an
// error) on timeout or a non-matching reply so the caller retries.
func (s *SensorLink) tryConnect(ctx context.Context) (id uint8, ok bool, err error) {
	if err := writeLinkPacket(ctx, s.phy, s.secret, PhaseHandshake, 0, s.identity, s.metrics); err != nil {
		return 0, false, err
	}

	hctx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
	defer cancel()

	phase, resID, payload, err := readLinkPacket(hctx, s.phy, s.secret, s.metrics)
	if err != nil {
		if ctx.Err() == nil && hctx.Err() == context.DeadlineExceeded {
			return 0, false, nil
		}
		return 0, false, err
	}
	if phase == PhaseHandshake && bytes.Equal(payload, s.identity) {
		return resID, true, nil
	}
	return 0, false, nil
}

// readPayload establishes a session if needed, then requests the next
// Data-phase frame addressed to it.
func (s *SensorLink) readPayload(ctx context.Context) error {
	for {
		id, err := s.connect(ctx)
		if err != nil {
			return err
		}
		phase, resID, payload, err := readLinkPacket(ctx, s.phy, s.secret, s.metrics)
		if err != nil {
			return err
		}
		if resID != id {
			pkg.LogDebug(pkg.ComponentLink, "dropping frame for different session", "id", resID, "expected", id)
			continue
		}
		if phase != PhaseData {
			pkg.LogWarn(pkg.ComponentLink, "unexpected phase from gateway, reconnecting")
			s.connected = false
			continue
		}
		s.payload = payload
		s.payloadPos = 0
		return nil
	}
}

// Read copies from the current Data payload into buf, establishing a
// session and pulling a new frame as needed.
func (s *SensorLink) Read(ctx context.Context, buf []byte) (int, uint8, error) {
	if s.payloadPos >= len(s.payload) {
		if err := s.readPayload(ctx); err != nil {
			return 0, 0, err
		}
	}
	n := copy(buf, s.payload[s.payloadPos:])
	s.payloadPos += n
	return n, GatewayID, nil
}

// Write buffers buf, flushing first if it would overflow txCapacity.
func (s *SensorLink) Write(ctx context.Context, buf []byte) (int, error) {
	if len(s.txBuf)+len(buf) > txCapacity {
		if err := s.Flush(ctx); err != nil {
			return 0, err
		}
	}
	s.txBuf = append(s.txBuf, buf...)
	return len(buf), nil
}

// Flush establishes a session if needed, then emits the buffered bytes as
// one Data-phase LinkPacket.
func (s *SensorLink) Flush(ctx context.Context) error {
	id, err := s.connect(ctx)
	if err != nil {
		return err
	}
	if err := writeLinkPacket(ctx, s.phy, s.secret, PhaseData, id, s.txBuf, s.metrics); err != nil {
		return err
	}
	s.txBuf = s.txBuf[:0]
	return nil
}
