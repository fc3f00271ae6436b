package app

import (
	"context"

	"github.com/windlore/telemetry/link"
)

// linkIO adapts a link.Link (whose Read/Write take an explicit context)
// to the io.Reader/io.Writer shape codec.Decoder/Encoder expect. ctx is
// set by the caller immediately before driving a decode or encode that
// may block on the link.
type linkIO struct {
	ctx  context.Context
	link link.Link
}

func (io *linkIO) Read(p []byte) (int, error) {
	n, _, err := io.link.Read(io.ctx, p)
	return n, err
}

func (io *linkIO) Write(p []byte) (int, error) {
	return io.link.Write(io.ctx, p)
}
