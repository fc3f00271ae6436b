// Package packet defines the APP-layer message types exchanged between a
// sensor board and a gateway board once a session is established: the
// [Packet] tagged union (handshake, ack, sensor data, reset) and the
// [SensorValue] tagged union nested inside a [SensorData] batch.
//
// Every type knows how to encode and decode itself through a [codec.Encoder]
// / [codec.Decoder] pair. A [SensorValue] kind this build doesn't recognize
// still decodes successfully by consuming exactly its declared length, and
// handshake tails are skipped by their declared length, so that a newer
// sender's extra fields never desynchronize an older receiver's byte stream.
// An unrecognized [Packet] id is a decoding error.
package packet
