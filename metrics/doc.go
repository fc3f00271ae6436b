// Package metrics exposes the telemetry stack's operational counters and
// gauges as Prometheus collectors, served via promhttp on the gateway's
// debug listener alongside net/http/pprof.
package metrics
