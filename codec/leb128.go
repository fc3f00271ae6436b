package codec

import (
	"fmt"

	"github.com/windlore/telemetry/pkg"
)

// appendULEB128 appends the unsigned LEB128 encoding of v to buf, returning
// the extended slice. Low 7 bits per byte, continuation bit (0x80) set on
// every byte but the last.
func appendULEB128(buf []byte, v uint64) []byte {
	for v > 0x7f {
		buf = append(buf, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// appendSLEB128 appends the signed LEB128 encoding of v to buf. The sign bit
// of the final byte (0x40) drives decode-time sign extension.
func appendSLEB128(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// ULEB128Len returns the number of bytes appendULEB128 would emit for v,
// without allocating. Used when a header field must declare the length of a
// trailing LEB128-encoded value (e.g. HandshakeEnd's tail_len).
func ULEB128Len(v uint64) int {
	n := 1
	for v > 0x7f {
		v >>= 7
		n++
	}
	return n
}

// readULEB128 reads a ULEB128 value, rejecting encodings that run past
// maxBytes without a terminating byte (the continuation bit clear).
func (d *Decoder) readULEB128(maxBytes int) (uint64, error) {
	var val uint64
	var shift uint

	for i := 0; i < maxBytes; i++ {
		b, err := d.ReadU8()
		if err != nil {
			return 0, err
		}
		val |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			return val, nil
		}
	}
	return 0, fmt.Errorf("%w: uleb128 exceeds %d bytes", pkg.ErrDecode, maxBytes)
}

// readSLEB128 reads a SLEB128 value, rejecting encodings that run past
// maxBytes without a terminating byte.
func (d *Decoder) readSLEB128(maxBytes int) (int64, error) {
	var val int64
	var shift uint

	for i := 0; i < maxBytes; i++ {
		b, err := d.ReadU8()
		if err != nil {
			return 0, err
		}
		val |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				val |= int64(-1) << shift
			}
			return val, nil
		}
	}
	return 0, fmt.Errorf("%w: sleb128 exceeds %d bytes", pkg.ErrDecode, maxBytes)
}
