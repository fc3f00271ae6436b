// Command gatewayboard runs the gateway side of the telemetry pipeline: it
// accepts sensor handshakes, collects uplinked readings, and republishes
// them to an HTTP and/or NATS backend.
//
// Usage:
//
//	gatewayboard [flags]
//
// Flags layer over config.Protocol's environment-derived defaults; an
// unset flag falls back to its TELEMETRY_* environment variable or the
// protocol default.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	flag "github.com/spf13/pflag"

	"github.com/windlore/telemetry/app"
	"github.com/windlore/telemetry/config"
	"github.com/windlore/telemetry/driver/gateway"
	"github.com/windlore/telemetry/link"
	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/phy/loopback"
	"github.com/windlore/telemetry/pkg"
	"github.com/windlore/telemetry/queue"
	"github.com/windlore/telemetry/sink"
	"github.com/windlore/telemetry/sink/httpsink"
	"github.com/windlore/telemetry/sink/natssink"
)

func main() {
	envFile := flag.String("env-file", "", "path to a .env file with TELEMETRY_* overrides")
	ackTimeout := flag.Duration("ack-timeout", 0, "override TELEMETRY_ACK_TIMEOUT")
	lbtGateway := flag.Duration("lbt-gateway", 0, "override TELEMETRY_LBT_DELAY_GATEWAY")
	postBatchDelay := flag.Duration("post-batch-delay", 0, "override TELEMETRY_POST_BATCH_DELAY_GATEWAY")
	queueCapacity := flag.Int("queue-capacity", 0, "override TELEMETRY_VALUE_QUEUE_CAPACITY")
	httpSinkURL := flag.String("http-sink-url", "", "HTTP endpoint to POST readings to; empty disables it")
	natsURL := flag.String("nats-url", "", "NATS server URL to publish readings to; empty disables it")
	natsSubject := flag.String("nats-subject", "telemetry.readings", "NATS subject for published readings")
	debugAddr := flag.String("debug-addr", "", "address to serve /debug/pprof and /metrics on; empty disables it")
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
	if *ackTimeout > 0 {
		cfg.AckTimeout = *ackTimeout
	}
	if *lbtGateway > 0 {
		cfg.LBTDelayGateway = *lbtGateway
	}
	if *postBatchDelay > 0 {
		cfg.PostBatchDelayGateway = *postBatchDelay
	}
	if *queueCapacity > 0 {
		cfg.ValueQueueCapacity = *queueCapacity
	}

	reg := metrics.NewRegistry()

	var sinks sink.Multi
	if *httpSinkURL != "" {
		sinks = append(sinks, httpsink.New(*httpSinkURL, nil))
	}
	if *natsURL != "" {
		nc, err := nats.Connect(*natsURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nats connect: %v\n", err)
			os.Exit(1)
		}
		defer nc.Close()
		sinks = append(sinks, natssink.New(nc, *natsSubject))
	}
	if len(sinks) == 0 {
		pkg.LogWarn(pkg.ComponentDriver, "no sinks configured, readings will be discarded after dequeue")
	}

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
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		go func() {
			pkg.LogInfo(pkg.ComponentDriver, "debug listener started", "addr", *debugAddr)
			if err := http.ListenAndServe(*debugAddr, mux); err != nil {
				pkg.LogError(pkg.ComponentDriver, "debug listener failed", "error", err)
			}
		}()
	}

	// TODO: wire a real radio phy.Layer here once hardware support lands;
	// the loopback pair keeps this binary runnable standalone for now.
	gphy, _ := loopback.NewPair()
	gwLink := link.NewGatewayLink(gphy, []byte(cfg.SharedSecret), cfg.LBTDelayGateway)
	gwLink.SetMetrics(reg)
	gw := app.NewGateway(gwLink, cfg.LBTDelayGateway, cfg.PostBatchDelayGateway)
	points := queue.NewPoint(cfg.ValueQueueCapacity)

	drv := gateway.New(gw, points, sinks)
	drv.SetMetrics(reg)
	if err := drv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()
	_ = drv.Stop()
	time.Sleep(50 * time.Millisecond)
}
