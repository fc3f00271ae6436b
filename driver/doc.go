// Package driver provides the outer run loops that wire an app.Sensor or
// app.Gateway to its value queue and, on the gateway side, to a
// sink.Sink. Each loop repeatedly calls CommCycle and reacts to the error
// it returns: a protocol error is logged and the loop retries the same
// phase; a pkg.ErrTimeout resets the session and restarts from
// handshake.
package driver
