package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string

	m.After(20*time.Second, "c", func() { order = append(order, "c") })
	m.After(10*time.Second, "a", func() { order = append(order, "a") })
	m.After(10*time.Second, "b", func() { order = append(order, "b") })

	assert.Equal(t, 0, m.Advance(9*time.Second))
	assert.Empty(t, order)

	assert.Equal(t, 2, m.Advance(time.Second))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 10*time.Second, m.Now())

	assert.Equal(t, 1, m.RunAll())
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 20*time.Second, m.Now())
	assert.Zero(t, m.Pending())
}

func TestManualChainedTasks(t *testing.T) {
	m := NewManual()
	var at []time.Duration

	var step func()
	step = func() {
		at = append(at, m.Now())
		if len(at) < 3 {
			m.After(5*time.Second, "chain", step)
		}
	}
	m.After(5*time.Second, "chain", step)

	assert.Equal(t, 3, m.Advance(time.Minute))
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}, at)
	assert.Equal(t, time.Minute, m.Now())

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, Call{Label: "chain", Delay: 5 * time.Second, At: 15 * time.Second}, calls[2])
}

func TestManualSurvivesPanics(t *testing.T) {
	m := NewManual()
	ran := false
	m.After(0, "boom", func() { panic("boom") })
	m.After(0, "after", func() { ran = true })

	assert.Equal(t, 2, m.RunAll())
	assert.True(t, ran)
}

func TestLoopRunUntilIdle(t *testing.T) {
	l := NewLoop()
	var order []int

	l.After(20*time.Millisecond, "second", func() { order = append(order, 2) })
	l.After(0, "first", func() {
		order = append(order, 1)
		l.After(time.Millisecond, "third", func() { order = append(order, 3) })
	})
	assert.Equal(t, 2, l.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.RunUntilIdle(ctx))

	assert.Equal(t, []int{1, 3, 2}, order)
	assert.Zero(t, l.Pending())
}

func TestLoopRunStopsOnContext(t *testing.T) {
	l := NewLoop()
	l.After(time.Hour, "never", func() { t.Error("must not run") })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, l.Pending())
}

func TestLoopAcceptsTasksFromOtherGoroutines(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var count atomic.Int32
	var running atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		l.After(time.Millisecond, "task", func() {
			defer wg.Done()
			if running.Add(1) > 1 {
				t.Error("callbacks overlapped")
			}
			count.Add(1)
			running.Add(-1)
		})
	}
	wg.Wait()
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.EqualValues(t, 50, count.Load())
}

func TestSchedulersSatisfyInterface(t *testing.T) {
	var _ Scheduler = NewLoop()
	var _ Scheduler = NewManual()
}
