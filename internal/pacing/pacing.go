package pacing

import (
	"context"
	"math/rand"
	"time"
)

// Sleep waits for d or until ctx is cancelled, whichever comes first.
// It returns ctx.Err() when interrupted so callers can stop promptly.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// Jitter returns a human-pacing delay, uniform over [lower, max] where
// lower is itself uniform over 10 to 30 seconds.
func Jitter(max time.Duration) time.Duration {
	lower := time.Duration(10+rand.Intn(21)) * time.Second
	if lower >= max {
		return max
	}
	return lower + time.Duration(rand.Int63n(int64(max-lower)+1))
}
