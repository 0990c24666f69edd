package scheduler

import (
	"sync"
	"time"
)

// Call records one After invocation on a Manual scheduler.
type Call struct {
	Label string
	Delay time.Duration
	At    time.Duration // virtual time at which the task is due
}

// Manual is a Scheduler driven by an explicit virtual clock, for tests.
// Nothing runs until Advance or RunAll is called, and callbacks run on the
// caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	epoch time.Time
	now   time.Duration
	queue taskHeap
	seq   uint64
	calls []Call
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{epoch: time.Unix(0, 0)}
}

// After records the call and queues fn at now+delay.
func (m *Manual) After(delay time.Duration, label string, fn func()) {
	if delay < 0 {
		delay = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	due := m.now + delay
	m.queue.push(&task{at: m.epoch.Add(due), seq: m.seq, label: label, fn: fn})
	m.calls = append(m.calls, Call{Label: label, Delay: delay, At: due})
}

// Advance moves the clock forward by d, running every task that becomes
// due in order, including tasks scheduled by those tasks. It returns the
// number of tasks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	return m.runUntil(target)
}

// RunAll advances the clock until no tasks are pending and returns the
// number of tasks run.
func (m *Manual) RunAll() int {
	ran := 0
	for {
		m.mu.Lock()
		next := m.queue.peek()
		m.mu.Unlock()
		if next == nil {
			return ran
		}
		ran += m.runUntil(next.at.Sub(m.epoch))
	}
}

func (m *Manual) runUntil(target time.Duration) int {
	ran := 0
	for {
		m.mu.Lock()
		next := m.queue.peek()
		if next == nil || next.at.Sub(m.epoch) > target {
			if target > m.now {
				m.now = target
			}
			m.mu.Unlock()
			return ran
		}
		t := m.queue.pop()
		if due := t.at.Sub(m.epoch); due > m.now {
			m.now = due
		}
		m.mu.Unlock()

		runTask(t)
		ran++
	}
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// Calls returns every After call made so far.
func (m *Manual) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
