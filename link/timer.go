package link

import (
	"context"
	"time"
)

// sleep waits for d, returning early with ctx.Err() if ctx is cancelled
// first. A non-positive d returns immediately.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
