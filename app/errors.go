package app

import "fmt"

// UnexpectedPacketError is returned when a packet arrives that the current
// state doesn't accept (e.g. SensorData before a handshake completes).
type UnexpectedPacketError struct {
	ID uint8
}

func (e *UnexpectedPacketError) Error() string {
	return fmt.Sprintf("unexpected packet: %d", e.ID)
}

// IncompatibleProtocolError is returned when a peer's major version does
// not match ProtocolMajor.
type IncompatibleProtocolError struct {
	Major, Minor uint8
}

func (e *IncompatibleProtocolError) Error() string {
	return fmt.Sprintf("incompatible protocol: %d.%d", e.Major, e.Minor)
}
