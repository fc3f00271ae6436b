// Package app implements the application-layer state machines that ride
// on top of a link.Link: [Gateway] accepts handshakes and collects sensor
// readings; [Sensor] establishes a session, then periodically uplinks
// batched readings and awaits acknowledgement.
//
// Both types are driven by a caller-owned loop (see
// github.com/windlore/telemetry/driver) that repeatedly calls CommCycle
// and reacts to the errors it returns — a protocol error simply logs and
// retries, while a timeout resets the link and restarts the session.
package app

// ProtocolMajor and ProtocolMinor identify the protocol revision this
// build speaks. A peer advertising a different major version is rejected
// as incompatible; minor version differences are tolerated.
const (
	ProtocolMajor uint8 = 1
	ProtocolMinor uint8 = 0
)
