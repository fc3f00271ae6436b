package link

import (
	"context"
	"time"

	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/phy"
	"github.com/windlore/telemetry/pkg"
)

// txCapacity is the maximum number of bytes GatewayLink and SensorLink
// buffer between flushes. Callers are expected to write chunks no larger
// than this (true of every codec primitive write); a chunk that would
// overflow triggers an implicit flush first.
const txCapacity = 64

// GatewayID identifies the (single, in this protocol version) gateway a
// sensor board talks to.
const GatewayID uint8 = 0

// GatewayLink is the gateway-side LINK. It owns exactly one radio and
// multiplexes at most one active sensor session at a time, issuing 4-bit
// session ids from a wrapping counter.
type GatewayLink struct {
	phy          phy.Layer
	secret       []byte
	lbtDelay     time.Duration
	currSensorID uint8
	metrics      *metrics.Registry

	payload    []byte
	payloadPos int
	txBuf      []byte
}

// NewGatewayLink wraps p, authenticating frames with secret. lbtDelay is
// the artificial listen-before-talk delay observed before replying to a
// handshake (see the protocol-relevant configuration keys).
func NewGatewayLink(p phy.Layer, secret []byte, lbtDelay time.Duration) *GatewayLink {
	return &GatewayLink{
		phy:          p,
		secret:       secret,
		lbtDelay:     lbtDelay,
		currSensorID: 15,
	}
}

// SetMetrics attaches a metrics registry that frame and reset counters are
// recorded against. A nil registry (the default) disables instrumentation.
func (g *GatewayLink) SetMetrics(m *metrics.Registry) {
	g.metrics = m
}

// Reset returns the link to its pre-session state, as if freshly
// constructed except for the session id counter, which keeps incrementing
// so a recovering sensor never reuses a stale id.
func (g *GatewayLink) Reset() {
	g.payload = nil
	g.payloadPos = 0
	g.txBuf = g.txBuf[:0]
	g.metrics.IncSessionResets()
	pkg.LogInfo(pkg.ComponentLink, "gateway link reset")
}

// handleInboundHandshake allocates the next session id and echoes the
// sensor's handshake payload back as proof of reception.
func (g *GatewayLink) handleInboundHandshake(ctx context.Context, payload []byte) error {
	g.currSensorID = (g.currSensorID + 1) & 0x0F
	pkg.LogInfo(pkg.ComponentLink, "sensor handshake received", "sessionID", g.currSensorID)

	if err := sleep(ctx, g.lbtDelay); err != nil {
		return err
	}
	return writeLinkPacket(ctx, g.phy, g.secret, PhaseHandshake, g.currSensorID, payload, g.metrics)
}

// readPayload requests the next Data-phase frame for the current session,
// transparently servicing handshake requests and discarding frames
// addressed to a stale session id.
func (g *GatewayLink) readPayload(ctx context.Context) error {
	for {
		phase, id, payload, err := readLinkPacket(ctx, g.phy, g.secret, g.metrics)
		if err != nil {
			return err
		}
		if phase == PhaseHandshake {
			if err := g.handleInboundHandshake(ctx, payload); err != nil {
				return err
			}
			continue
		}
		if id != g.currSensorID {
			pkg.LogDebug(pkg.ComponentLink, "dropping frame for stale session", "id", id, "current", g.currSensorID)
			continue
		}
		g.payload = payload
		g.payloadPos = 0
		return nil
	}
}

// Read copies from the current Data payload into buf, pulling a new
// authenticated frame when the current one is exhausted.
func (g *GatewayLink) Read(ctx context.Context, buf []byte) (int, uint8, error) {
	if g.payloadPos >= len(g.payload) {
		if err := g.readPayload(ctx); err != nil {
			return 0, 0, err
		}
	}
	n := copy(buf, g.payload[g.payloadPos:])
	g.payloadPos += n
	return n, g.currSensorID, nil
}

// Write buffers buf, flushing first if it would overflow txCapacity.
func (g *GatewayLink) Write(ctx context.Context, buf []byte) (int, error) {
	if len(g.txBuf)+len(buf) > txCapacity {
		if err := g.Flush(ctx); err != nil {
			return 0, err
		}
	}
	g.txBuf = append(g.txBuf, buf...)
	return len(buf), nil
}

// Flush emits the buffered bytes as one Data-phase LinkPacket addressed to
// the current session.
func (g *GatewayLink) Flush(ctx context.Context) error {
	if err := writeLinkPacket(ctx, g.phy, g.secret, PhaseData, g.currSensorID, g.txBuf, g.metrics); err != nil {
		return err
	}
	g.txBuf = g.txBuf[:0]
	return nil
}
