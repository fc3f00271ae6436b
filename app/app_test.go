package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/windlore/telemetry/link"
	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/phy/loopback"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
)

const testSecret = "SECRET"

func newTestStack(t *testing.T) (*Gateway, *Sensor) {
	t.Helper()
	gphy, sphy := loopback.NewPair()
	gwLink := link.NewGatewayLink(gphy, []byte(testSecret), time.Millisecond)
	snLink := link.NewSensorLink(sphy, []byte(testSecret), []byte("sensor-01"), 2*time.Second, time.Millisecond)

	gw := NewGateway(gwLink, time.Millisecond, time.Millisecond)
	sn := NewSensor(snLink, 2*time.Second, 2*time.Second, time.Millisecond, time.Millisecond)
	return gw, sn
}

func TestHandshakeThenSensorDataEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gw, sn := newTestStack(t)

	points := queue.NewPoint(4)
	values := queue.NewValue(4)
	values.Enqueue(packet.NewTemperature(21.5))
	values.Enqueue(packet.NewPressure(1.0))

	gwErr := make(chan error, 2)
	go func() {
		gwErr <- gw.CommCycle(ctx, points) // handshake
		gwErr <- gw.CommCycle(ctx, points) // sensor data
	}()

	if err := sn.CommCycle(ctx, values); err != nil { // handshake
		t.Fatalf("sensor handshake CommCycle: %v", err)
	}
	if err := <-gwErr; err != nil {
		t.Fatalf("gateway handshake CommCycle: %v", err)
	}
	if gw.Phase != GatewayUplink {
		t.Errorf("gateway phase = %v, want GatewayUplink", gw.Phase)
	}
	if sn.Phase != SensorUplink {
		t.Errorf("sensor phase = %v, want SensorUplink", sn.Phase)
	}

	if err := sn.CommCycle(ctx, values); err != nil { // send batch + await ack
		t.Fatalf("sensor uplink CommCycle: %v", err)
	}
	if err := <-gwErr; err != nil {
		t.Fatalf("gateway uplink CommCycle: %v", err)
	}

	if points.Len() != 2 {
		t.Fatalf("points.Len() = %d, want 2", points.Len())
	}
	p1, _ := points.Dequeue()
	p2, _ := points.Dequeue()
	if p1.Value.Temperature != 21.5 {
		t.Errorf("p1.Value.Temperature = %v, want 21.5", p1.Value.Temperature)
	}
	if p2.Value.Pressure != 1.0 {
		t.Errorf("p2.Value.Pressure = %v, want 1.0", p2.Value.Pressure)
	}
}

func TestGatewayRejectsIncompatibleMajor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gw, sn := newTestStack(t)
	points := queue.NewPoint(4)

	gwErr := make(chan error, 1)
	go func() { gwErr <- gw.CommCycle(ctx, points) }()

	sn.io.ctx = ctx
	start := packet.NewHandshakeStart(packet.HandshakeStart{Major: 99, Minor: 0})
	if err := start.Encode(sn.enc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := sn.link.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	err := <-gwErr
	var incompat *IncompatibleProtocolError
	if !errors.As(err, &incompat) {
		t.Fatalf("gateway CommCycle error = %v, want *IncompatibleProtocolError", err)
	}
	if gw.Phase != GatewayHandshake {
		t.Errorf("gateway phase = %v, want GatewayHandshake", gw.Phase)
	}
}

func TestSensorDataBeforeHandshakeIsUnexpected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gw, sn := newTestStack(t)
	points := queue.NewPoint(4)

	gwErr := make(chan error, 1)
	go func() { gwErr <- gw.CommCycle(ctx, points) }()

	sn.io.ctx = ctx
	data := packet.NewSensorData(packet.SensorData{Count: 0})
	if err := data.Encode(sn.enc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := sn.link.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	err := <-gwErr
	var unexpected *UnexpectedPacketError
	if !errors.As(err, &unexpected) {
		t.Fatalf("gateway CommCycle error = %v, want *UnexpectedPacketError", err)
	}
}

func TestGatewayResetConnectionReturnsToHandshakePhase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gw, sn := newTestStack(t)
	gw.Phase = GatewayUplink

	gwErr := make(chan error, 1)
	go func() { gwErr <- gw.CommCycle(ctx, queue.NewPoint(4)) }()

	sn.io.ctx = ctx
	if err := packet.NewResetConnection().Encode(sn.enc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := sn.link.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := <-gwErr; err != nil {
		t.Fatalf("gateway CommCycle error = %v, want nil", err)
	}
	if gw.Phase != GatewayHandshake {
		t.Errorf("gateway phase = %v, want GatewayHandshake", gw.Phase)
	}
}

func TestSensorHandshakeTimeoutResetsSession(t *testing.T) {
	gphy, sphy := loopback.NewPair()
	_ = gphy // gateway side never replies, forcing a timeout
	snLink := link.NewSensorLink(sphy, []byte(testSecret), []byte("sensor-01"), 50*time.Millisecond, time.Millisecond)
	sn := NewSensor(snLink, 50*time.Millisecond, 2*time.Second, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	values := queue.NewValue(4)
	err := sn.CommCycle(ctx, values)
	if !errors.Is(err, pkg.ErrTimeout) {
		t.Fatalf("CommCycle() error = %v, want %v", err, pkg.ErrTimeout)
	}

	sn.Reset()
	if sn.Phase != SensorHandshake {
		t.Errorf("Phase = %v, want SensorHandshake", sn.Phase)
	}
}

func TestOverflowBatchOnlyEmitsQueuedValues(t *testing.T) {
	_, sn := newTestStack(t)

	values := queue.NewValue(4)
	for i := 0; i < 4; i++ {
		values.Enqueue(packet.NewTemperature(float32(i)))
	}
	if err := values.Enqueue(packet.NewTemperature(99)); !errors.Is(err, pkg.ErrQueueFull) {
		t.Fatalf("5th Enqueue error = %v, want %v", err, pkg.ErrQueueFull)
	}

	batch := values.DrainBatch()
	if len(batch) != 4 {
		t.Fatalf("DrainBatch() len = %d, want 4", len(batch))
	}
	sn.Phase = SensorUplink // bypass handshake for this unit test
}
