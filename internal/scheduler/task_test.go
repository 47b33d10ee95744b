package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTask_CancelStopsWork(t *testing.T) {
	started := make(chan struct{})
	task := Go(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	task.Cancel()
	require.NoError(t, task.Wait(context.Background()))
}

func TestTask_WaitHonorsContext(t *testing.T) {
	task := Go(context.Background(), func(ctx context.Context) { <-ctx.Done() })
	defer task.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestPoll_SucceedsOnAttempt(t *testing.T) {
	var seen []int
	err := Poll(context.Background(), PollConfig{
		InitialDelay: time.Millisecond,
		Interval:     time.Millisecond,
		MaxAttempts:  30,
	}, func(a Attempt) bool {
		seen = append(seen, a.N)
		return a.N == 5
	})

	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestPoll_Exhausted(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), PollConfig{Interval: time.Millisecond, MaxAttempts: 30},
		func(Attempt) bool { calls++; return false })

	require.True(t, errors.Is(err, ErrAttemptsExhausted))
	require.Equal(t, 30, calls)
}

func TestPoll_NudgeChecksWithoutConsumingAttempt(t *testing.T) {
	nudge := make(chan struct{}, 1)
	nudge <- struct{}{}

	var got []Attempt
	err := Poll(context.Background(), PollConfig{Interval: time.Hour, MaxAttempts: 1, Nudge: nudge},
		func(a Attempt) bool {
			got = append(got, a)
			return a.Nudged
		})

	require.NoError(t, err)
	require.Equal(t, []Attempt{{N: 0, Nudged: true}}, got)
}

func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Poll(ctx, PollConfig{Interval: time.Hour, MaxAttempts: 3}, func(Attempt) bool { return false })
	require.ErrorIs(t, err, context.Canceled)
}
