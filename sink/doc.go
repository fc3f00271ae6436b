// Package sink defines the gateway's value-export contract and the
// concrete exporters ([github.com/windlore/telemetry/sink/httpsink],
// [github.com/windlore/telemetry/sink/natssink]) the gateway driver fans
// decoded readings out to.
package sink
