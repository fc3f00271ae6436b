// Package sensor runs the sensor board's sample-and-uplink loop: a sampler
// feeds packet.SensorValue readings into a bounded queue.Value, while a
// single driver goroutine repeatedly drives an app.Sensor's CommCycle to
// hand batches off to the gateway.
package sensor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/windlore/telemetry/app"
	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
)

// Sampler produces one sensor reading. A real board implements this over
// its ADC/I2C peripherals; tests and simulations can supply a closure.
type Sampler func(ctx context.Context) (packet.SensorValue, error)

// Driver owns a sensor board's application state machine and its local
// value queue, running the sample and uplink loops as separate
// goroutines until stopped.
type Driver struct {
	sn              *app.Sensor
	values          *queue.Value
	sample          Sampler
	measureInterval time.Duration
	metrics         *metrics.Registry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a Driver around an already-configured app.Sensor, a
// value queue of the configured capacity, a Sampler, and the interval
// between samples.
func New(sn *app.Sensor, values *queue.Value, sample Sampler, measureInterval time.Duration) *Driver {
	return &Driver{sn: sn, values: values, sample: sample, measureInterval: measureInterval}
}

// SetMetrics attaches a metrics registry that queue depth is recorded
// against. A nil registry (the default) disables instrumentation.
func (d *Driver) SetMetrics(m *metrics.Registry) {
	d.metrics = m
}

// Start launches the sampler and uplink goroutines. It returns
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
	go func() { defer wg.Done(); d.sampleLoop(runCtx) }()
	go func() { defer wg.Done(); d.uplinkLoop(runCtx) }()
	go func() {
		wg.Wait()
		close(d.done)
	}()

	pkg.LogInfo(pkg.ComponentDriver, "sensor driver started")
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
	pkg.LogInfo(pkg.ComponentDriver, "sensor driver stopped")
	return nil
}

func (d *Driver) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(d.measureInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v, err := d.sample(ctx)
			if err != nil {
				pkg.LogWarn(pkg.ComponentDriver, "sample failed", "error", err)
				continue
			}
			if err := d.values.Enqueue(v); err != nil {
				pkg.LogWarn(pkg.ComponentDriver, "value queue full, dropping sample", "kind", v.Kind())
			}
			d.metrics.SetQueueDepth(d.values.Len())
		}
	}
}

func (d *Driver) uplinkLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := d.sn.CommCycle(ctx, d.values)
		switch {
		case err == nil:
			continue
		case ctx.Err() != nil:
			return
		case isTimeout(err):
			pkg.LogWarn(pkg.ComponentDriver, "comm cycle timed out, resetting session")
			d.sn.Reset()
		default:
			pkg.LogError(pkg.ComponentDriver, "comm cycle failed", "error", err)
		}
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, pkg.ErrTimeout)
}
