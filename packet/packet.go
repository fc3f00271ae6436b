package packet

import (
	"fmt"

	"github.com/windlore/telemetry/codec"
	"github.com/windlore/telemetry/pkg"
)

// Packet ids, stable across protocol revisions.
const (
	IDHandshakeStart uint8 = 0
	IDHandshakeEnd   uint8 = 1
	IDAck            uint8 = 2
	IDSensorData     uint8 = 3
	IDResetConnection uint8 = 4
)

// Packet is the tagged union of every message an APP layer can send or
// receive. ID identifies the active variant; the irrelevant struct fields
// are zero.
type Packet struct {
	id uint8

	HandshakeStart HandshakeStart
	HandshakeEnd   HandshakeEnd
	SensorData     SensorData
}

// ID returns the packet's wire discriminant.
func (p Packet) ID() uint8 { return p.id }

// NewHandshakeStart wraps a HandshakeStart payload in a Packet.
func NewHandshakeStart(v HandshakeStart) Packet {
	return Packet{id: IDHandshakeStart, HandshakeStart: v}
}

// NewHandshakeEnd wraps a HandshakeEnd payload in a Packet.
func NewHandshakeEnd(v HandshakeEnd) Packet {
	return Packet{id: IDHandshakeEnd, HandshakeEnd: v}
}

// NewAck returns an Ack packet.
func NewAck() Packet { return Packet{id: IDAck} }

// NewSensorData wraps a SensorData header in a Packet.
func NewSensorData(v SensorData) Packet {
	return Packet{id: IDSensorData, SensorData: v}
}

// NewResetConnection returns a ResetConnection packet.
func NewResetConnection() Packet { return Packet{id: IDResetConnection} }

// Encode writes the packet's discriminant byte followed by its payload, if
// any.
func (p Packet) Encode(enc *codec.Encoder) error {
	if err := enc.WriteU8(p.id); err != nil {
		return err
	}
	switch p.id {
	case IDHandshakeStart:
		return p.HandshakeStart.Encode(enc)
	case IDHandshakeEnd:
		return p.HandshakeEnd.Encode(enc)
	case IDAck, IDResetConnection:
		return nil
	case IDSensorData:
		return p.SensorData.Encode(enc)
	default:
		return fmt.Errorf("%w: unknown packet id %d", pkg.ErrDecode, p.id)
	}
}

// DecodePacket reads a discriminant byte and its matching payload.
func DecodePacket(dec *codec.Decoder) (Packet, error) {
	id, err := dec.ReadU8()
	if err != nil {
		return Packet{}, err
	}
	switch id {
	case IDHandshakeStart:
		v, err := DecodeHandshakeStart(dec)
		if err != nil {
			return Packet{}, err
		}
		return NewHandshakeStart(v), nil
	case IDHandshakeEnd:
		v, err := DecodeHandshakeEnd(dec)
		if err != nil {
			return Packet{}, err
		}
		return NewHandshakeEnd(v), nil
	case IDAck:
		return NewAck(), nil
	case IDSensorData:
		v, err := DecodeSensorData(dec)
		if err != nil {
			return Packet{}, err
		}
		return NewSensorData(v), nil
	case IDResetConnection:
		return NewResetConnection(), nil
	default:
		return Packet{}, fmt.Errorf("%w: unknown packet id %d", pkg.ErrDecode, id)
	}
}

// HandshakeStart is the sensor's opening proposal: the protocol major/minor
// it speaks. The wire form carries a trailing tail_len (always 0 today) so
// future revisions can append fields without breaking older receivers.
type HandshakeStart struct {
	Major uint8
	Minor uint8
}

func (h HandshakeStart) Encode(enc *codec.Encoder) error {
	if err := enc.WriteU8(h.Major); err != nil {
		return err
	}
	if err := enc.WriteU8(h.Minor); err != nil {
		return err
	}
	return enc.WriteU32(0)
}

// DecodeHandshakeStart reads major, minor, and discards any forward-compat
// tail bytes.
func DecodeHandshakeStart(dec *codec.Decoder) (HandshakeStart, error) {
	major, err := dec.ReadU8()
	if err != nil {
		return HandshakeStart{}, err
	}
	minor, err := dec.ReadU8()
	if err != nil {
		return HandshakeStart{}, err
	}
	tailLen, err := dec.ReadU32()
	if err != nil {
		return HandshakeStart{}, err
	}
	if err := dec.Discard(int(tailLen)); err != nil {
		return HandshakeStart{}, err
	}
	return HandshakeStart{Major: major, Minor: minor}, nil
}

// HandshakeEnd is the gateway's reply: the negotiated major/minor and a
// millisecond epoch snapshot the sensor uses to align its own clock to the
// gateway's for time_offset computation.
type HandshakeEnd struct {
	Major uint8
	Minor uint8
	Epoch uint64
}

// Encode writes major, minor, a tail_len equal to the ULEB128 length of
// Epoch, then Epoch itself — the tail_len/epoch pair forming the
// forward-compatible tail.
func (h HandshakeEnd) Encode(enc *codec.Encoder) error {
	if err := enc.WriteU8(h.Major); err != nil {
		return err
	}
	if err := enc.WriteU8(h.Minor); err != nil {
		return err
	}
	tailLen := codec.ULEB128Len(h.Epoch)
	if err := enc.WriteU32(uint32(tailLen)); err != nil {
		return err
	}
	return enc.WriteU64(h.Epoch)
}

// DecodeHandshakeEnd reads major, minor, tail_len, then Epoch only if
// Major == 1 (older/newer majors carry an epoch of a different shape this
// build doesn't understand, so it's treated as absent and the whole tail is
// discarded opaquely).
func DecodeHandshakeEnd(dec *codec.Decoder) (HandshakeEnd, error) {
	major, err := dec.ReadU8()
	if err != nil {
		return HandshakeEnd{}, err
	}
	minor, err := dec.ReadU8()
	if err != nil {
		return HandshakeEnd{}, err
	}
	tailLen, err := dec.ReadU32()
	if err != nil {
		return HandshakeEnd{}, err
	}

	var epoch uint64
	remaining := uint64(tailLen)
	if major == 1 {
		pos := dec.Offset()
		epoch, err = dec.ReadU64()
		if err != nil {
			return HandshakeEnd{}, err
		}
		epochLen := dec.Offset() - pos
		if epochLen > remaining {
			return HandshakeEnd{}, fmt.Errorf("%w: handshake tail_len underflow", pkg.ErrDecode)
		}
		remaining -= epochLen
	}

	if err := dec.Discard(int(remaining)); err != nil {
		return HandshakeEnd{}, err
	}
	return HandshakeEnd{Major: major, Minor: minor, Epoch: epoch}, nil
}

// SensorData is the header of a batch of sensor readings; the readings
// themselves (SensorValuePoint) follow immediately on the wire, Count of
// them, decoded separately by the caller.
type SensorData struct {
	Count uint8
}

func (s SensorData) Encode(enc *codec.Encoder) error {
	return enc.WriteU8(s.Count)
}

func DecodeSensorData(dec *codec.Decoder) (SensorData, error) {
	count, err := dec.ReadU8()
	if err != nil {
		return SensorData{}, err
	}
	return SensorData{Count: count}, nil
}
