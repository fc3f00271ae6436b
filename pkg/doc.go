// Package pkg provides shared utilities for the wireless telemetry stack.
//
// This package contains common functionality used across the codec, phy,
// link, app, and driver layers, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for protocol errors
//   - Component identifiers for log filtering
//
// The package itself has zero external dependencies, relying only on the
// Go standard library; third-party integrations (metrics, config loading,
// message-bus sinks) live in their own packages.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with protocol-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentLink, "session established", "id", 3)
//
// # Errors
//
// Common protocol errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrTimeout) {
//	    // reset the session
//	}
package pkg
