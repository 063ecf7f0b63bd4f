package probe

import (
	"context"
	"time"
)

const subsystem = "Probe"

// Prober waits for a single target to become ready.
type Prober interface {
	// Describe names the target for logs and summaries.
	Describe() string

	// WaitUntilReady polls until the target is ready or timeout elapses.
	// It returns false on expiry; the caller may re-invoke.
	WaitUntilReady(ctx context.Context, timeout time.Duration) bool
}

// pollUntil runs check every interval until it returns true, the timeout
// elapses, or ctx is done. The deadline is fixed once at entry.
func pollUntil(ctx context.Context, timeout, interval time.Duration, check func(context.Context) bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if check(ctx) {
			return true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return false
		}
		wait := interval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
}
