package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry collects every metric the gateway and sensor drivers update.
// A zero Registry is not usable; construct one with NewRegistry.
type Registry struct {
	reg *prometheus.Registry

	FramesSent    prometheus.Counter
	FramesDropped prometheus.Counter
	SessionResets prometheus.Counter
	QueueDepth    prometheus.Gauge
	AckRoundTrip  prometheus.Histogram
}

// NewRegistry creates a Registry with all collectors registered against a
// fresh prometheus.Registry (not the global default, so tests and multiple
// boards in one process don't collide).
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "frames_sent_total",
			Help:      "Number of LINK frames successfully transmitted.",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "frames_dropped_total",
			Help:      "Number of inbound frames dropped for being undersized or failing signature verification.",
		}),
		SessionResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "session_resets_total",
			Help:      "Number of times a link session was reset back to the handshake phase.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "telemetry",
			Name:      "value_queue_depth",
			Help:      "Current number of values queued awaiting uplink or sink export.",
		}),
		AckRoundTrip: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "telemetry",
			Name:      "ack_round_trip_seconds",
			Help:      "Time from sending a sensor data batch to receiving its ack.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns the HTTP handler that serves this registry's metrics in
// the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// The Inc*/Set*/Observe* methods below are nil-receiver safe so that
// link, app, and driver code can hold an optional *Registry (nil until
// SetMetrics is called) and instrument unconditionally, without an
// if-reg-!=-nil guard at every call site.

// IncFramesSent records one successfully transmitted LINK frame.
func (r *Registry) IncFramesSent() {
	if r == nil {
		return
	}
	r.FramesSent.Inc()
}

// IncFramesDropped records one inbound frame dropped for being undersized
// or failing signature verification.
func (r *Registry) IncFramesDropped() {
	if r == nil {
		return
	}
	r.FramesDropped.Inc()
}

// IncSessionResets records one link session reset back to Handshake
// phase.
func (r *Registry) IncSessionResets() {
	if r == nil {
		return
	}
	r.SessionResets.Inc()
}

// SetQueueDepth records the current number of values queued.
func (r *Registry) SetQueueDepth(n int) {
	if r == nil {
		return
	}
	r.QueueDepth.Set(float64(n))
}

// ObserveAckRoundTrip records the elapsed time between sending a sensor
// data batch and receiving its ack.
func (r *Registry) ObserveAckRoundTrip(d time.Duration) {
	if r == nil {
		return
	}
	r.AckRoundTrip.Observe(d.Seconds())
}
