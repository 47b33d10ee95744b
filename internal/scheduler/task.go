package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted is returned by Poll when every attempt came back negative.
var ErrAttemptsExhausted = errors.New("attempts exhausted")

// Task is a background goroutine bound to its own cancellation.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Go starts fn in a new goroutine with a context derived from parent.
// Cancel or a cancelled parent stops it cooperatively.
func Go(parent context.Context, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		fn(ctx)
	}()
	return t
}

// Cancel asks the task to stop. It does not wait.
func (t *Task) Cancel() {
	if t != nil {
		t.cancel()
	}
}

// Done is closed once the task function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task returns or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PollConfig shapes a Poll loop.
type PollConfig struct {
	// InitialDelay is waited once before the first attempt's interval.
	InitialDelay time.Duration
	// Interval is waited before every attempt.
	Interval time.Duration
	// MaxAttempts bounds the number of interval-driven checks.
	MaxAttempts int
	// Nudge, when non-nil, triggers an extra check between attempts. Nudged
	// checks do not consume an attempt.
	Nudge <-chan struct{}
}

// Attempt describes one check made by Poll.
type Attempt struct {
	// N is the 1-based attempt number; for nudged checks it is the number of
	// attempts made so far.
	N      int
	Nudged bool
}

// Poll calls check until it reports done, the attempts run out
// (ErrAttemptsExhausted) or ctx is done (ctx.Err()).
func Poll(ctx context.Context, cfg PollConfig, check func(Attempt) bool) error {
	if err := Sleep(ctx, cfg.InitialDelay); err != nil {
		return err
	}

	for n := 1; n <= cfg.MaxAttempts; n++ {
		timer := time.NewTimer(cfg.Interval)
	wait:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case _, ok := <-cfg.Nudge:
				if !ok {
					cfg.Nudge = nil
					continue
				}
				if check(Attempt{N: n - 1, Nudged: true}) {
					timer.Stop()
					return nil
				}
			case <-timer.C:
				break wait
			}
		}
		if check(Attempt{N: n}) {
			return nil
		}
	}
	return ErrAttemptsExhausted
}
