package packet

import (
	"fmt"

	"github.com/windlore/telemetry/codec"
	"github.com/windlore/telemetry/pkg"
)

// SensorValue kinds. Unknown is any kind this build does not recognize; it
// is never produced locally but must still round-trip through a decoder so
// a mixed-version deployment doesn't desynchronize its byte stream.
const (
	KindTemperature uint32 = 0
	KindPressure    uint32 = 1
	KindAltitude    uint32 = 2
	KindAirQuality  uint32 = 3
	KindUnknown     uint32 = 0xFFFFFFFF
)

// SensorValue is a tagged union over the readings a sensor board can report.
// Known kinds carry a 4-byte IEEE-754 float; Unknown carries only the
// metadata (its wire kind and declared byte length) needed to skip the
// payload without understanding it.
type SensorValue struct {
	kind uint32

	Temperature float32
	Pressure    float32
	Altitude    float32
	AirQuality  float32

	UnknownID       uint32
	UnknownValueLen uint32
}

func NewTemperature(v float32) SensorValue { return SensorValue{kind: KindTemperature, Temperature: v} }
func NewPressure(v float32) SensorValue    { return SensorValue{kind: KindPressure, Pressure: v} }
func NewAltitude(v float32) SensorValue    { return SensorValue{kind: KindAltitude, Altitude: v} }
func NewAirQuality(v float32) SensorValue  { return SensorValue{kind: KindAirQuality, AirQuality: v} }

// NewUnknownValue constructs a placeholder for a kind this build can't
// interpret, carrying only enough metadata to skip over it on encode.
func NewUnknownValue(id, valueLen uint32) SensorValue {
	return SensorValue{kind: KindUnknown, UnknownID: id, UnknownValueLen: valueLen}
}

// Kind returns the wire discriminant.
func (v SensorValue) Kind() uint32 { return v.kind }

// Encode writes the kind, the value's byte length, then the value bytes
// themselves. For Unknown it writes only the original id and the declared
// UnknownValueLen; no payload bytes follow.
func (v SensorValue) Encode(enc *codec.Encoder) error {
	if v.kind == KindUnknown {
		if err := enc.WriteU32(v.UnknownID); err != nil {
			return err
		}
		return enc.WriteU32(v.UnknownValueLen)
	}

	if err := enc.WriteU32(v.kind); err != nil {
		return err
	}
	if err := enc.WriteU32(4); err != nil {
		return err
	}
	switch v.kind {
	case KindTemperature:
		return enc.WriteF32(v.Temperature)
	case KindPressure:
		return enc.WriteF32(v.Pressure)
	case KindAltitude:
		return enc.WriteF32(v.Altitude)
	case KindAirQuality:
		return enc.WriteF32(v.AirQuality)
	default:
		return fmt.Errorf("%w: unknown sensor value kind %d", pkg.ErrDecode, v.kind)
	}
}

// DecodeSensorValue reads a kind, a declared value length, then exactly
// that many bytes regardless of whether the kind is recognized. Bytes left
// over after a known kind's body are discarded; a body longer than the
// declared length is a decoding error (the sender is lying about its own
// format).
func DecodeSensorValue(dec *codec.Decoder) (SensorValue, error) {
	kind, err := dec.ReadU32()
	if err != nil {
		return SensorValue{}, err
	}
	valueLen, err := dec.ReadU32()
	if err != nil {
		return SensorValue{}, err
	}
	pos := dec.Offset()

	var value SensorValue
	switch kind {
	case KindTemperature:
		f, err := dec.ReadF32()
		if err != nil {
			return SensorValue{}, err
		}
		value = NewTemperature(f)
	case KindPressure:
		f, err := dec.ReadF32()
		if err != nil {
			return SensorValue{}, err
		}
		value = NewPressure(f)
	case KindAltitude:
		f, err := dec.ReadF32()
		if err != nil {
			return SensorValue{}, err
		}
		value = NewAltitude(f)
	case KindAirQuality:
		f, err := dec.ReadF32()
		if err != nil {
			return SensorValue{}, err
		}
		value = NewAirQuality(f)
	default:
		value = NewUnknownValue(kind, valueLen)
	}

	actual := dec.Offset() - pos
	if actual > uint64(valueLen) {
		return SensorValue{}, fmt.Errorf("%w: sensor value length underflow", pkg.ErrDecode)
	}
	remaining := uint64(valueLen) - actual
	if err := dec.Discard(int(remaining)); err != nil {
		return SensorValue{}, err
	}
	return value, nil
}

// SensorValuePoint pairs a reading with its time offset, in whole seconds
// relative to the session's reference epoch (see app.Sensor).
type SensorValuePoint struct {
	Value      SensorValue
	TimeOffset int64
}

func (p SensorValuePoint) Encode(enc *codec.Encoder) error {
	if err := enc.WriteI64(p.TimeOffset); err != nil {
		return err
	}
	return p.Value.Encode(enc)
}

func DecodeSensorValuePoint(dec *codec.Decoder) (SensorValuePoint, error) {
	offset, err := dec.ReadI64()
	if err != nil {
		return SensorValuePoint{}, err
	}
	value, err := DecodeSensorValue(dec)
	if err != nil {
		return SensorValuePoint{}, err
	}
	return SensorValuePoint{Value: value, TimeOffset: offset}, nil
}
