package link

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"

	"github.com/windlore/telemetry/metrics"
	"github.com/windlore/telemetry/phy"
	"github.com/windlore/telemetry/pkg"
)

// headerSize is the fixed number of bytes every LinkPacket header occupies
// on the wire, ahead of its payload.
const headerSize = 5

// Phase distinguishes session negotiation frames from ordinary data
// frames.
type Phase uint8

const (
	PhaseData      Phase = 0b00
	PhaseHandshake Phase = 0b10
)

func (p Phase) bits() uint8 { return uint8(p) }

func phaseFromBits(b uint8) Phase {
	if b == 0b10 {
		return PhaseHandshake
	}
	return PhaseData
}

// signPayload returns the high 34 bits of HMAC-SHA256(secret, payload),
// taken from its first 5 bytes.
func signPayload(secret, payload []byte) uint64 {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	sum := mac.Sum(nil)

	v40 := uint64(sum[0])<<32 | uint64(sum[1])<<24 | uint64(sum[2])<<16 | uint64(sum[3])<<8 | uint64(sum[4])
	return v40 >> 6
}

// encodeHeader packs phase, id, and a 34-bit signature into the 5-byte
// LinkPacket header: byte 0 is phase(2) | id(4) | sig[33:32](2); bytes 1-4
// are sig[31:0] big-endian.
func encodeHeader(phase Phase, id uint8, sig34 uint64) [headerSize]byte {
	var h [headerSize]byte
	h[0] = phase.bits()<<6 | (id&0x0F)<<2 | uint8(sig34>>32)
	h[1] = byte(sig34 >> 24)
	h[2] = byte(sig34 >> 16)
	h[3] = byte(sig34 >> 8)
	h[4] = byte(sig34)
	return h
}

func decodeHeader(h []byte) (phase Phase, id uint8, sig34 uint64) {
	phase = phaseFromBits(h[0] >> 6)
	id = (h[0] >> 2) & 0x0F
	sig34 = uint64(h[0]&0x03)<<32 | uint64(h[1])<<24 | uint64(h[2])<<16 | uint64(h[3])<<8 | uint64(h[4])
	return phase, id, sig34
}

// writeLinkPacket signs payload, emits the 5-byte header followed by the
// payload, and flushes the frame in one shot. reg may be nil.
func writeLinkPacket(ctx context.Context, p phy.Layer, secret []byte, phase Phase, id uint8, payload []byte, reg *metrics.Registry) error {
	sig := signPayload(secret, payload)
	header := encodeHeader(phase, id, sig)
	if _, err := p.Write(header[:]); err != nil {
		return err
	}
	if _, err := p.Write(payload); err != nil {
		return err
	}
	if err := p.Flush(ctx); err != nil {
		return err
	}
	reg.IncFramesSent()
	return nil
}

// readLinkPacket reads frames until one authenticates, returning its phase,
// session id, and payload. Frames shorter than headerSize+1 bytes or that
// fail HMAC verification are silently dropped. reg may be nil.
func readLinkPacket(ctx context.Context, p phy.Layer, secret []byte, reg *metrics.Registry) (Phase, uint8, []byte, error) {
	for {
		if err := p.Read(ctx); err != nil {
			return 0, 0, nil, err
		}
		frame := p.RxBuffer()
		if len(frame) < headerSize+1 {
			pkg.LogDebug(pkg.ComponentLink, "dropping undersized frame", "bytes", len(frame))
			reg.IncFramesDropped()
			continue
		}
		header, payload := frame[:headerSize], frame[headerSize:]
		phase, id, sig := decodeHeader(header)
		if signPayload(secret, payload) != sig {
			pkg.LogDebug(pkg.ComponentLink, "dropping frame with bad signature")
			reg.IncFramesDropped()
			continue
		}
		return phase, id, payload, nil
	}
}
