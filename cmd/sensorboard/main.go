// Command sensorboard runs the sensor side of the telemetry pipeline: it
// establishes a session with a gateway, samples a fixed set of synthetic
// readings at a configurable interval, and uplinks batches for
// acknowledgement.
//
// Usage:
//
//	sensorboard [flags]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/windlore/telemetry/app"
	"github.com/windlore/telemetry/config"
	"github.com/windlore/telemetry/driver/sensor"
	"github.com/windlore/telemetry/link"
	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/packet"
	"github.com/windlore/telemetry/phy/loopback"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
)

func main() {
	envFile := flag.String("env-file", "", "path to a .env file with TELEMETRY_* overrides")
	identity := flag.String("identity", "sensor-01", "opaque identity token presented during the link-level handshake")
	handshakeTimeout := flag.Duration("handshake-timeout", 0, "override TELEMETRY_HANDSHAKE_TIMEOUT")
	ackTimeout := flag.Duration("ack-timeout", 0, "override TELEMETRY_ACK_TIMEOUT")
	lbtSensor := flag.Duration("lbt-sensor", 0, "override TELEMETRY_LBT_DELAY_SENSOR")
	sendInterval := flag.Duration("send-interval", 0, "override TELEMETRY_SEND_INTERVAL")
	measureInterval := flag.Duration("measure-interval", 0, "override TELEMETRY_MEASURE_INTERVAL")
	queueCapacity := flag.Int("queue-capacity", 0, "override TELEMETRY_VALUE_QUEUE_CAPACITY")
	debugAddr := flag.String("debug-addr", "", "address to serve /metrics on; empty disables it")
	verbose := flag.BoolP("verbose", "v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *handshakeTimeout > 0 {
		cfg.HandshakeTimeout = *handshakeTimeout
	}
	if *ackTimeout > 0 {
		cfg.AckTimeout = *ackTimeout
	}
	if *lbtSensor > 0 {
		cfg.LBTDelaySensor = *lbtSensor
	}
	if *sendInterval > 0 {
		cfg.SendInterval = *sendInterval
	}
	if *measureInterval > 0 {
		cfg.MeasureInterval = *measureInterval
	}
	if *queueCapacity > 0 {
		cfg.ValueQueueCapacity = *queueCapacity
	}

	reg := metrics.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		pkg.LogInfo(pkg.ComponentDriver, "shutting down")
		cancel()
	}()

	if *debugAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		go func() {
			pkg.LogInfo(pkg.ComponentDriver, "debug listener started", "addr", *debugAddr)
			if err := http.ListenAndServe(*debugAddr, mux); err != nil {
				pkg.LogError(pkg.ComponentDriver, "debug listener failed", "error", err)
			}
		}()
	}

	// TODO: wire a real radio phy.Layer here once hardware support lands;
	// the loopback pair keeps this binary runnable standalone for now.
	_, sphy := loopback.NewPair()
	snLink := link.NewSensorLink(sphy, []byte(cfg.SharedSecret), []byte(*identity), cfg.HandshakeTimeout, cfg.LBTDelaySensor)
	snLink.SetMetrics(reg)
	sn := app.NewSensor(snLink, cfg.HandshakeTimeout, cfg.AckTimeout, cfg.LBTDelaySensor, cfg.SendInterval)
	sn.SetMetrics(reg)
	values := queue.NewValue(cfg.ValueQueueCapacity)

	drv := sensor.New(sn, values, syntheticSampler(), cfg.MeasureInterval)
	drv.SetMetrics(reg)
	if err := drv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()
	_ = drv.Stop()
}

// syntheticSampler cycles through the four known reading kinds with
// plausible jitter, standing in for real ADC/I2C peripheral sampling.
func syntheticSampler() sensor.Sampler {
	kinds := []func(float32) packet.SensorValue{
		packet.NewTemperature,
		packet.NewPressure,
		packet.NewAltitude,
		packet.NewAirQuality,
	}
	i := 0
	return func(_ context.Context) (packet.SensorValue, error) {
		k := kinds[i%len(kinds)]
		base := []float32{21.0, 1.0, 150.0, 0.4}[i%4]
		i++
		jitter := float32(rand.NormFloat64()) * 0.1
		return k(base + jitter), nil
	}
}
