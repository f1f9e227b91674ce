// Package clock holds the waiting primitives used while the node warms up.
package clock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SleepWithContext pauses for d. It returns ctx.Err() as soon as ctx is done;
// a non-positive d only reports the current context state.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poll calls fn until it returns nil, ctx is done or timeout elapses.
// A zero timeout allows a single attempt.
func Poll(ctx context.Context, interval, timeout time.Duration, fn func(attempt int) error) error {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if timeout <= 0 || !time.Now().Add(interval).Before(deadline) {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}
		if err := SleepWithContext(ctx, interval); err != nil {
			return err
		}
	}
}
