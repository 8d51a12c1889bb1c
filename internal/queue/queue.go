// Package queue defers work out of edge-handler context onto the main loop.
//
// Handlers Post small tasks; the main loop receives them from C and runs them
// one at a time, in order. Post never blocks: a full queue drops the task and
// counts it, the same way the firmware's schedule queue rejects work when full.
package queue

import "sync/atomic"

// DefaultCapacity matches the depth of the firmware's schedule queue.
const DefaultCapacity = 8

// Task is a unit of deferred work.
type Task func()

// Queue is a bounded FIFO of tasks. Any number of goroutines may Post; a
// single consumer drains C.
type Queue struct {
	ch      chan Task
	dropped atomic.Uint64
}

// New creates a Queue holding at most capacity pending tasks.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Task, capacity)}
}

// Post enqueues t. It returns false without blocking if the queue is full.
func (q *Queue) Post(t Task) bool {
	select {
	case q.ch <- t:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// C returns the channel the consumer receives tasks from.
func (q *Queue) C() <-chan Task {
	return q.ch
}

// Drain runs every task currently pending and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case t := <-q.ch:
			t()
			n++
		default:
			return n
		}
	}
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns how many tasks were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
