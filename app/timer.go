package app

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

// isDeadlineExceeded reports whether child's own deadline fired, as
// opposed to parent being cancelled for some other reason.
func isDeadlineExceeded(parent, child context.Context) bool {
	return parent.Err() == nil && child.Err() == context.DeadlineExceeded
}
