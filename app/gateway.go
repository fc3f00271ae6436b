package app

import (
	"context"
	"time"

	"github.com/windlore/telemetry/codec"
	"github.com/windlore/telemetry/link"
	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
)

// GatewayPhase tracks where a gateway session is in its lifecycle.
type GatewayPhase int

const (
	GatewayInitial GatewayPhase = iota
	GatewayHandshake
	GatewayUplink
)

// Gateway is the gateway-side application state machine: it accepts a
// handshake, then repeatedly receives sensor data batches and acks them.
type Gateway struct {
	link link.Link
	io   *linkIO
	dec  *codec.Decoder
	enc  *codec.Encoder

	lbtDelay       time.Duration
	postBatchDelay time.Duration

	Phase GatewayPhase
}

// NewGateway constructs a Gateway over l. lbtDelay is the artificial
// listen-before-talk pause before replying to a handshake; postBatchDelay
// is the pause after decoding a sensor data batch before acking it.
func NewGateway(l link.Link, lbtDelay, postBatchDelay time.Duration) *Gateway {
	io := &linkIO{link: l}
	return &Gateway{
		link:           l,
		io:             io,
		dec:            codec.NewDecoder(io),
		enc:            codec.NewEncoder(io),
		lbtDelay:       lbtDelay,
		postBatchDelay: postBatchDelay,
		Phase:          GatewayInitial,
	}
}

// CommCycle waits for and processes one inbound packet. On success it
// advances g.Phase as needed; on error the caller should log and retry
// (CommCycle never needs an explicit reset — only the link, not the
// gateway app state, carries session identity).
func (g *Gateway) CommCycle(ctx context.Context, points *queue.Point) error {
	g.io.ctx = ctx
	pkt, err := packet.DecodePacket(g.dec)
	if err != nil {
		return err
	}

	switch pkt.ID() {
	case packet.IDHandshakeStart:
		if err := g.onHandshakeStart(ctx, pkt.HandshakeStart); err != nil {
			g.Phase = GatewayHandshake
			return err
		}
		g.Phase = GatewayUplink
		return nil
	case packet.IDSensorData:
		if g.Phase != GatewayUplink {
			return &UnexpectedPacketError{ID: pkt.ID()}
		}
		return g.onSensorData(ctx, pkt.SensorData, points)
	case packet.IDResetConnection:
		pkg.LogWarn(pkg.ComponentApp, "sensor requested connection reset")
		g.Phase = GatewayHandshake
		return nil
	default:
		return &UnexpectedPacketError{ID: pkt.ID()}
	}
}

func (g *Gateway) onHandshakeStart(ctx context.Context, hs packet.HandshakeStart) error {
	if hs.Major != ProtocolMajor {
		return &IncompatibleProtocolError{Major: hs.Major, Minor: hs.Minor}
	}
	pkg.LogInfo(pkg.ComponentApp, "handshake start received", "major", hs.Major, "minor", hs.Minor)

	if err := sleep(ctx, g.lbtDelay); err != nil {
		return err
	}

	epoch := uint64(time.Now().UnixMilli())
	g.io.ctx = ctx
	end := packet.NewHandshakeEnd(packet.HandshakeEnd{
		Major: ProtocolMajor,
		Minor: ProtocolMinor,
		Epoch: epoch,
	})
	if err := end.Encode(g.enc); err != nil {
		return err
	}
	if err := g.link.Flush(ctx); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentApp, "handshake complete, awaiting sensor data")
	return nil
}

func (g *Gateway) onSensorData(ctx context.Context, sd packet.SensorData, points *queue.Point) error {
	pkg.LogInfo(pkg.ComponentApp, "sensor data batch received", "count", sd.Count)

	g.io.ctx = ctx
	for i := uint8(0); i < sd.Count; i++ {
		if slot := points.TrySlot(); slot != nil {
			p, err := packet.DecodeSensorValuePoint(g.dec)
			if err != nil {
				return err
			}
			*slot = p
			points.Commit()
		} else {
			p, err := packet.DecodeSensorValuePoint(g.dec)
			if err != nil {
				return err
			}
			pkg.LogWarn(pkg.ComponentApp, "dropping value, queue full",
				"kind", p.Value.Kind(), "timeOffset", p.TimeOffset)
		}
	}

	if err := sleep(ctx, g.postBatchDelay); err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentApp, "sending ack")
	g.io.ctx = ctx
	if err := packet.NewAck().Encode(g.enc); err != nil {
		return err
	}
	return g.link.Flush(ctx)
}
