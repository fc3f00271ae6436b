// Package gateway runs the gateway board's accept-and-export loop: a
// single driver goroutine repeatedly drives an app.Gateway's CommCycle to
// receive handshakes and sensor data batches, while a second goroutine
// drains the resulting queue.Point into a sink.Sink.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/windlore/telemetry/app"
	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
	"github.com/windlore/telemetry/sink"
)

// exportPollInterval bounds how long exportLoop waits before re-checking
// an empty queue.Point for a freshly committed reading.
const exportPollInterval = 20 * time.Millisecond

// Driver owns a gateway board's application state machine, its intake
// queue, and the sink readings are exported to.
type Driver struct {
	gw     *app.Gateway
	points *queue.Point
	out    sink.Sink

	metrics *metrics.Registry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a Driver around an already-configured app.Gateway, a
// point queue of the configured capacity, and the sink to export to.
func New(gw *app.Gateway, points *queue.Point, out sink.Sink) *Driver {
	return &Driver{gw: gw, points: points, out: out}
}

// SetMetrics attaches a metrics registry that queue depth is recorded
// against. A nil registry (the default) disables instrumentation.
func (d *Driver) SetMetrics(m *metrics.Registry) {
	d.metrics = m
}

// Start launches the accept and export goroutines. It returns
// pkg.ErrAlreadyRunning if called twice without an intervening Stop.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return pkg.ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); d.acceptLoop(runCtx) }()
	go func() { defer wg.Done(); d.exportLoop(runCtx) }()
	go func() {
		wg.Wait()
		close(d.done)
	}()

	pkg.LogInfo(pkg.ComponentDriver, "gateway driver started")
	return nil
}

// Stop cancels the driver's goroutines and blocks until both have
// returned. It returns pkg.ErrNotRunning if the driver was never started.
func (d *Driver) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return pkg.ErrNotRunning
	}
	cancel, done := d.cancel, d.done
	d.running = false
	d.mu.Unlock()

	cancel()
	<-done
	pkg.LogInfo(pkg.ComponentDriver, "gateway driver stopped")
	return nil
}

func (d *Driver) acceptLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := d.gw.CommCycle(ctx, d.points); err != nil {
			if ctx.Err() != nil {
				return
			}
			pkg.LogError(pkg.ComponentDriver, "comm cycle failed", "error", err)
		}
	}
}

func (d *Driver) exportLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p, ok := d.points.Dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(exportPollInterval):
			}
			continue
		}
		d.metrics.SetQueueDepth(d.points.Len())
		if err := d.out.Publish(ctx, p); err != nil {
			pkg.LogWarn(pkg.ComponentDriver, "sink publish failed", "error", err)
		}
	}
}
