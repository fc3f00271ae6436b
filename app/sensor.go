package app

import (
	"context"
	"time"

	"github.com/windlore/telemetry/codec"
	"github.com/windlore/telemetry/link"
	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
)

// SensorPhase tracks where a sensor session is in its lifecycle.
type SensorPhase int

const (
	SensorHandshake SensorPhase = iota
	SensorUplink
)

// Sensor is the sensor-side application state machine: it establishes a
// session via handshake, then repeatedly drains its local value queue into
// uplink batches and awaits an ack.
type Sensor struct {
	link link.Link
	io   *linkIO
	dec  *codec.Decoder
	enc  *codec.Encoder

	handshakeTimeout time.Duration
	ackTimeout       time.Duration
	lbtDelay         time.Duration
	sendInterval     time.Duration
	metrics          *metrics.Registry

	Phase SensorPhase

	sensorEpoch time.Time
	diffMicros  int64
}

// NewSensor constructs a Sensor over l. handshakeTimeout bounds sending
// HandshakeStart (including any link-level session negotiation) and the
// wait for HandshakeEnd; ackTimeout bounds the wait for Ack after a batch;
// lbtDelay is the artificial pre-SensorData listen-before-talk pause;
// sendInterval is the sleep between uplink cycles.
func NewSensor(l link.Link, handshakeTimeout, ackTimeout, lbtDelay, sendInterval time.Duration) *Sensor {
	io := &linkIO{link: l}
	return &Sensor{
		link:             l,
		io:               io,
		dec:              codec.NewDecoder(io),
		enc:              codec.NewEncoder(io),
		handshakeTimeout: handshakeTimeout,
		ackTimeout:       ackTimeout,
		lbtDelay:         lbtDelay,
		sendInterval:     sendInterval,
		Phase:            SensorHandshake,
	}
}

// SetMetrics attaches a metrics registry that ack round-trip latency is
// recorded against. A nil registry (the default) disables instrumentation.
func (s *Sensor) SetMetrics(m *metrics.Registry) {
	s.metrics = m
}

// Reset returns the sensor to Handshake phase and resets the underlying
// link, invalidating any negotiated session id.
func (s *Sensor) Reset() {
	s.link.Reset()
	s.Phase = SensorHandshake
}

// CommCycle runs one iteration of the sensor's state machine. On
// pkg.ErrTimeout the caller should call Reset and retry from Handshake.
func (s *Sensor) CommCycle(ctx context.Context, values *queue.Value) error {
	if s.Phase == SensorHandshake {
		return s.initiateHandshake(ctx)
	}
	return s.sendValues(ctx, values)
}

func (s *Sensor) initiateHandshake(ctx context.Context) error {
	pkg.LogInfo(pkg.ComponentApp, "initiating handshake")

	hctx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
	defer cancel()
	s.io.ctx = hctx

	start := packet.NewHandshakeStart(packet.HandshakeStart{Major: ProtocolMajor, Minor: ProtocolMinor})
	if err := start.Encode(s.enc); err != nil {
		return err
	}
	if err := s.link.Flush(hctx); err != nil {
		if isDeadlineExceeded(ctx, hctx) {
			return pkg.ErrTimeout
		}
		return err
	}
	pkg.LogInfo(pkg.ComponentApp, "handshake sent, awaiting reply")

	pkt, err := packet.DecodePacket(s.dec)
	if err != nil {
		if isDeadlineExceeded(ctx, hctx) {
			return pkg.ErrTimeout
		}
		return err
	}
	if pkt.ID() != packet.IDHandshakeEnd {
		return &UnexpectedPacketError{ID: pkt.ID()}
	}
	end := pkt.HandshakeEnd
	if end.Major != ProtocolMajor {
		return &IncompatibleProtocolError{Major: end.Major, Minor: end.Minor}
	}

	now := time.Now()
	gatewayEpochMicros := int64(end.Epoch) * 1000
	s.diffMicros = now.UnixMicro() - gatewayEpochMicros
	s.sensorEpoch = now
	s.Phase = SensorUplink
	pkg.LogInfo(pkg.ComponentApp, "handshake complete", "epochDiffMicros", s.diffMicros)
	return nil
}

func (s *Sensor) sendValues(ctx context.Context, values *queue.Value) error {
	batch := values.DrainBatch()
	if len(batch) == 0 {
		return sleep(ctx, s.sendInterval)
	}

	pkg.LogInfo(pkg.ComponentApp, "sending values", "count", len(batch))
	elapsedMicros := time.Since(s.sensorEpoch).Microseconds()
	timeOffset := (elapsedMicros - s.diffMicros) / 1_000_000

	if err := sleep(ctx, s.lbtDelay); err != nil {
		return err
	}

	s.io.ctx = ctx
	data := packet.NewSensorData(packet.SensorData{Count: uint8(len(batch))})
	if err := data.Encode(s.enc); err != nil {
		return err
	}
	for _, v := range batch {
		point := packet.SensorValuePoint{Value: v, TimeOffset: timeOffset}
		if err := point.Encode(s.enc); err != nil {
			return err
		}
	}
	if err := s.link.Flush(ctx); err != nil {
		return err
	}
	ackWaitStart := time.Now()

	pkg.LogInfo(pkg.ComponentApp, "waiting for ack")
	actx, cancel := context.WithTimeout(ctx, s.ackTimeout)
	defer cancel()
	s.io.ctx = actx

	pkt, err := packet.DecodePacket(s.dec)
	if err != nil {
		if isDeadlineExceeded(ctx, actx) {
			return pkg.ErrTimeout
		}
		return err
	}
	if pkt.ID() != packet.IDAck {
		return &UnexpectedPacketError{ID: pkt.ID()}
	}
	s.metrics.ObserveAckRoundTrip(time.Since(ackWaitStart))

	return sleep(ctx, s.sendInterval)
}
