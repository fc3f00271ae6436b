package link

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/windlore/telemetry/phy/loopback"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex.DecodeString(%q): %v", s, err)
	}
	return b
}

func TestLinkPacketEncoding(t *testing.T) {
	payload := []byte("this is the payload")
	secret := []byte("secret key")

	sig := signPayload(secret, payload)
	header := encodeHeader(PhaseHandshake, 5, sig)

	// action(2) + id(4) bits: 10_0101_xx
	if header[0]&0b11111100 != 0b10_0101_00 {
		t.Errorf("header[0] & 0xfc = %08b, want %08b", header[0]&0b11111100, byte(0b10_0101_00))
	}

	var encoded bytes.Buffer
	encoded.Write(header[:])
	encoded.Write(payload)
	if encoded.Len() != headerSize+len(payload) {
		t.Errorf("encoded length = %d, want %d", encoded.Len(), headerSize+len(payload))
	}
}

func TestLinkPacketGoldenVector(t *testing.T) {
	// From the reference implementation's test fixtures: Handshake phase,
	// session id 5, secret "secret key", payload "this is the payload".
	valid := mustHex(t, "961b1998ae7468697320697320746865207061796c6f6164")
	badSig := mustHex(t, "932b1998ae7468697320697320746865207061796c6f6164")
	secret := []byte("secret key")

	header, payload := valid[:headerSize], valid[headerSize:]
	phase, id, sig := decodeHeader(header)
	if phase != PhaseHandshake {
		t.Errorf("phase = %v, want Handshake", phase)
	}
	if id != 5 {
		t.Errorf("id = %d, want 5", id)
	}
	if string(payload) != "this is the payload" {
		t.Errorf("payload = %q", payload)
	}
	if signPayload(secret, payload) != sig {
		t.Error("signPayload() does not match embedded signature")
	}

	badHeader := badSig[:headerSize]
	_, _, badSigVal := decodeHeader(badHeader)
	if signPayload(secret, payload) == badSigVal {
		t.Error("bad-signature vector unexpectedly verified")
	}
}

func TestReadLinkPacketDropsBadFrames(t *testing.T) {
	a, b := loopback.NewPair()
	secret := []byte("secret key")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		// Too short to contain a header.
		a.Write([]byte{0x01, 0x02})
		a.Flush(ctx)

		// Well-formed but wrong key used to sign.
		writeLinkPacket(ctx, a, []byte("wrong key"), PhaseData, 3, []byte("payload"), nil)

		// Finally, a valid frame.
		writeLinkPacket(ctx, a, secret, PhaseData, 3, []byte("payload"), nil)
	}()

	phase, id, payload, err := readLinkPacket(ctx, b, secret, nil)
	if err != nil {
		t.Fatalf("readLinkPacket: %v", err)
	}
	if phase != PhaseData || id != 3 || string(payload) != "payload" {
		t.Errorf("readLinkPacket() = (%v, %d, %q)", phase, id, payload)
	}
}
