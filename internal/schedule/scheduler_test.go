package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalJob_NextRun(t *testing.T) {
	j := Every("refresh", 15*time.Minute, func(context.Context) {})
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(15*time.Minute), j.NextRun(now))
}

func TestDailyJob_NextRun(t *testing.T) {
	j := DailyAt("rates", 6, func(context.Context) {})

	t.Run("later today when before the hour", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 3, 30, 0, 0, time.UTC)
		next := j.NextRun(now)
		assert.Equal(t, time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC), next)
	})

	t.Run("tomorrow when past the hour", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		next := j.NextRun(now)
		assert.Equal(t, time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC), next)
	})

	t.Run("tomorrow when exactly on the hour", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
		next := j.NextRun(now)
		assert.Equal(t, time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC), next)
	})

	t.Run("stays pinned after a mid-day restart", func(t *testing.T) {
		// A process restarted at 14:17 still targets 06:00 next day,
		// not 14:17 plus a fixed interval.
		now := time.Date(2025, 6, 1, 14, 17, 0, 0, time.UTC)
		next := j.NextRun(now)
		assert.Equal(t, 6, next.Hour())
		assert.Equal(t, 0, next.Minute())
	})
}

func TestScheduler_RunsAndStops(t *testing.T) {
	var runs atomic.Int32
	s := New()
	s.Add(Every("tick", 5*time.Millisecond, func(context.Context) {
		runs.Add(1)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
