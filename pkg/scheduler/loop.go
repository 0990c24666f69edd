package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/safefs/internal/logger"
)

// Loop is a single-goroutine timer loop. After may be called from any
// goroutine, including from inside a running callback; callbacks execute only
// on the goroutine calling Run or RunUntilIdle.
type Loop struct {
	mu    sync.Mutex
	queue taskHeap
	seq   uint64
	wake  chan struct{}
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// After schedules fn to run no earlier than delay from now.
func (l *Loop) After(delay time.Duration, label string, fn func()) {
	if delay < 0 {
		delay = 0
	}

	l.mu.Lock()
	l.seq++
	l.queue.push(&task{at: time.Now().Add(delay), seq: l.seq, label: label, fn: fn})
	l.mu.Unlock()

	logger.Debug("task scheduled", logger.KeyLabel, label, logger.RetryAfter(delay))

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of tasks not yet run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// Run executes tasks as they become due until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	return l.run(ctx, false)
}

// RunUntilIdle executes tasks until none are pending, or ctx is done.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	return l.run(ctx, true)
}

func (l *Loop) run(ctx context.Context, untilIdle bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		next := l.queue.peek()
		if next == nil {
			l.mu.Unlock()
			if untilIdle {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
			}
			continue
		}

		wait := time.Until(next.at)
		if wait <= 0 {
			t := l.queue.pop()
			l.mu.Unlock()
			runTask(t)
			continue
		}
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-l.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// runTask executes one callback. A panicking callback is logged and does not
// stop the loop.
func runTask(t *task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled task panicked", logger.KeyLabel, t.label, "panic", r)
		}
	}()
	logger.Debug("running task", logger.KeyLabel, t.label)
	t.fn()
}
