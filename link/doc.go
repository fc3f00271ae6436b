// Package link implements the authenticated link layer: HMAC-signed
// framing over a phy.Layer, session id negotiation, and a byte-stream
// read/write/flush/reset API the app layer builds on.
//
// Every frame on the wire is a [LinkPacket]: a 5-byte header (phase, 4-bit
// session id, a truncated HMAC-SHA256 tag) followed by the payload
// verbatim. [GatewayLink] and [SensorLink] negotiate a session id during an
// opaque handshake phase, then gate Data-phase frames by that id.
package link
