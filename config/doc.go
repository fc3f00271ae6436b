// Package config loads the tunable knobs of the telemetry protocol —
// shared secret, timeouts, delays, and queue capacity — from a .env file
// and the process environment, falling back to the protocol's documented
// defaults when a key is unset.
package config
