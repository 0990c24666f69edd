// Package scheduler runs deferred callbacks one at a time.
//
// Retry chains never block waiting for their next attempt: they hand a
// callback to a Scheduler and return. Both implementations here execute
// callbacks sequentially, so callbacks never run concurrently with each
// other.
package scheduler

import (
	"container/heap"
	"time"
)

// Scheduler invokes fn once, no earlier than delay from now.
type Scheduler interface {
	After(delay time.Duration, label string, fn func())
}

// task is a pending callback. seq keeps tasks due at the same instant in
// submission order.
type task struct {
	at    time.Time
	seq   uint64
	label string
	fn    func()
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

func (h *taskHeap) push(t *task) { heap.Push(h, t) }

func (h *taskHeap) pop() *task { return heap.Pop(h).(*task) }

func (h taskHeap) peek() *task {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
