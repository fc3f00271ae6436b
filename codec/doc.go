// Package codec implements the wire encoding shared by every packet in the
// wireless telemetry protocol: ULEB128/SLEB128 variable-length integers,
// single bytes, and little-endian IEEE-754 floats. The length-prefixed
// tagged unions built from these primitives live in package packet.
//
// An [Encoder] wraps an [io.Writer]; a [Decoder] wraps an [io.Reader] and
// tracks a monotonically increasing [Decoder.Offset], so callers recovering
// from a partial read (e.g. after a LINK reset) know exactly how many bytes
// of the stream were consumed. Both types are transport-agnostic: the same
// encoder/decoder pair is used over a link.Link, a bytes.Buffer in tests, or
// any other byte sink/source.
package codec
