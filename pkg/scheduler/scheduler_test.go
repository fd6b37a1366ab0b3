package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/scheduler"
)

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	t.Parallel()

	s := scheduler.New(scheduler.WithLogger(logger.Discard()))
	var ok, failing, panicking atomic.Int32
	require.NoError(t, s.Register("ok", scheduler.Every(5*time.Millisecond), func(context.Context) error {
		ok.Add(1)
		return nil
	}))
	require.NoError(t, s.Register("failing", scheduler.Every(5*time.Millisecond), func(context.Context) error {
		failing.Add(1)
		return errors.New("boom")
	}))
	require.NoError(t, s.Register("panicking", scheduler.Every(5*time.Millisecond), func(context.Context) error {
		panicking.Add(1)
		panic("bad job")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return ok.Load() >= 3 && failing.Load() >= 3 && panicking.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	t.Parallel()

	s := scheduler.New(scheduler.WithLogger(logger.Discard()), scheduler.WithRunOnStart())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Register("sweep", scheduler.DailyAt(2, 0), func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
}

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	s := scheduler.New(scheduler.WithLogger(logger.Discard()))
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("sweep", scheduler.Every(time.Hour), noop))
	assert.ErrorIs(t, s.Register("sweep", scheduler.Every(time.Hour), noop), scheduler.ErrJobAlreadyRegistered)
	assert.ErrorIs(t, s.Register("", scheduler.Every(time.Hour), noop), scheduler.ErrInvalidJob)
	assert.ErrorIs(t, s.Register("x", nil, noop), scheduler.ErrInvalidJob)
	assert.ErrorIs(t, s.Register("x", scheduler.Every(time.Hour), nil), scheduler.ErrInvalidJob)
}
