package replay

import (
	"context"
	"time"
)

// Throttle keeps consecutive record starts at least interval apart. It
// waits in steps of at most poll so a long interval is re-checked against
// the clock and stays interruptible.
type Throttle struct {
	interval time.Duration
	poll     time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewThrottle creates a throttle on the wall clock
func NewThrottle(interval, poll time.Duration) *Throttle {
	if poll <= 0 {
		poll = time.Second
	}
	return &Throttle{
		interval: interval,
		poll:     poll,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until interval has passed since start. Processing that
// already took longer returns immediately.
func (t *Throttle) Wait(ctx context.Context, start time.Time) error {
	if t.interval <= 0 {
		return nil
	}
	deadline := start.Add(t.interval)
	for {
		remaining := deadline.Sub(t.now())
		if remaining <= 0 {
			return nil
		}
		if err := t.sleep(ctx, min(remaining, t.poll)); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
