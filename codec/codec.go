package codec

import (
	"fmt"
	"io"
	"math"

	"github.com/windlore/telemetry/pkg"
)

// Encoder serializes primitive and composite values to an underlying byte
// sink. It has no internal buffering or rollback: a failed write may leave
// the sink holding a partial encoding, matching the spec's "atomic at the
// application-packet level only by convention" contract.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w in an Encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteBytes writes all of buf to the sink.
func (e *Encoder) WriteBytes(buf []byte) error {
	_, err := e.w.Write(buf)
	return err
}

// WriteU8 writes a single byte.
func (e *Encoder) WriteU8(v uint8) error {
	return e.WriteBytes([]byte{v})
}

// WriteU32 writes v as ULEB128, at most 5 bytes.
func (e *Encoder) WriteU32(v uint32) error {
	var buf [5]byte
	return e.WriteBytes(appendULEB128(buf[:0], uint64(v)))
}

// WriteU64 writes v as ULEB128, at most 10 bytes.
func (e *Encoder) WriteU64(v uint64) error {
	var buf [10]byte
	return e.WriteBytes(appendULEB128(buf[:0], v))
}

// WriteI64 writes v as SLEB128, at most 10 bytes.
func (e *Encoder) WriteI64(v int64) error {
	var buf [10]byte
	return e.WriteBytes(appendSLEB128(buf[:0], v))
}

// WriteF32 writes v as 4 little-endian bytes (IEEE-754 bit pattern).
func (e *Encoder) WriteF32(v float32) error {
	bits := math.Float32bits(v)
	return e.WriteBytes([]byte{
		byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24),
	})
}

// Decoder deserializes primitive and composite values from an underlying
// byte source.
type Decoder struct {
	r      io.Reader
	offset uint64
}

// NewDecoder wraps r in a Decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadBytes fills buf entirely or returns an error. A zero-length request
// is a no-op.
func (d *Decoder) ReadBytes(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := io.ReadFull(d.r, buf)
	d.offset += uint64(n)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return fmt.Errorf("%w: unexpected EOF", pkg.ErrDecode)
		}
		return err
	}
	return nil
}

// Offset returns the total number of bytes returned by prior ReadBytes
// calls. It wraps on overflow, as permitted by the spec.
func (d *Decoder) Offset() uint64 {
	return d.offset
}

// Discard consumes and discards exactly n bytes.
func (d *Decoder) Discard(n int) error {
	var buf [16]byte
	for n > 0 {
		chunk := n
		if chunk > len(buf) {
			chunk = len(buf)
		}
		if err := d.ReadBytes(buf[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// DecodingError returns the sentinel error for malformed input.
func (d *Decoder) DecodingError() error {
	return pkg.ErrDecode
}

// ReadU8 reads a single byte.
func (d *Decoder) ReadU8() (uint8, error) {
	var buf [1]byte
	if err := d.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadU32 reads a ULEB128-encoded value, rejecting encodings longer than
// 5 bytes.
func (d *Decoder) ReadU32() (uint32, error) {
	v, err := d.readULEB128(5)
	return uint32(v), err
}

// ReadU64 reads a ULEB128-encoded value, rejecting encodings longer than
// 10 bytes.
func (d *Decoder) ReadU64() (uint64, error) {
	return d.readULEB128(10)
}

// ReadI64 reads a SLEB128-encoded value, rejecting encodings longer than
// 10 bytes.
func (d *Decoder) ReadI64() (int64, error) {
	return d.readSLEB128(10)
}

// ReadF32 reads 4 little-endian bytes as an IEEE-754 float32.
func (d *Decoder) ReadF32() (float32, error) {
	var buf [4]byte
	if err := d.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	bits := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return math.Float32frombits(bits), nil
}
