// Package poll provides a bounded wait primitive shared by the approval gate
// and long-running provider status checks.
package poll

import (
	"context"
	"time"
)

// Until invokes fn every interval until it reports done, the timeout elapses,
// or the context is canceled. It returns true when fn reported done within the
// budget; a fn error aborts the wait immediately.
func Until(ctx context.Context, interval, timeout time.Duration, fn func(ctx context.Context) (bool, error)) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Check once up front so short timeouts still observe an already-resolved
	// condition.
	done, err := fn(ctx)
	if err != nil || done {
		return done, err
	}

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
			done, err := fn(ctx)
			if err != nil || done {
				return done, err
			}
		}
	}
}
