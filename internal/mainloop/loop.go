// Package mainloop provides the single goroutine that owns all mutable
// search state.
//
// Goroutine safety:
// Post may be called from any goroutine and never blocks. Closures run one
// at a time, in the order they were posted, on the goroutine that called
// Run. Anything documented as "main loop only" must be touched exclusively
// from inside a posted closure.
package mainloop

import (
	"context"
	"sync"
)

// Loop is a FIFO executor with an unbounded queue.
// The queue is unbounded so a posting goroutine can never deadlock against
// a closure that is itself blocked on that goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{} // capacity 1; signals queue non-empty
	done    chan struct{} // closed when Run returns
	started bool
}

// New creates a Loop. Call Run to start executing.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. Returns false if the loop has stopped, in which case
// fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits for it to finish. Returns false if the loop
// stopped before fn ran. Must not be called from the loop itself.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.done:
		// Run may have executed fn just before exiting.
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Run executes posted closures until ctx is done. Closures still queued
// when ctx ends are discarded and later posts are rejected.
// Run must be called at most once.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		panic("mainloop: Run called twice")
	}
	l.started = true
	l.mu.Unlock()

	defer close(l.done)
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		for {
			if ctx.Err() != nil {
				return
			}
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of queued closures.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
}
