package otel

// Goroutine safety:
// Emit runs on the coordinator's main loop and on image task completions,
// so it only marshals and enqueues. drain is the only reader of l.ch and
// the only writer to l.w. l.mu guards just the ring pointer; drain
// releases it before pushing so it never nests with the ring's own lock.

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the async write queue. One All search emits about a
// dozen events plus one per visible thumbnail, and events are ~250 bytes.
const queueSize = 4096

type entry struct {
	line []byte
	ev   Event // kept unserialized so the ring sees Dur
}

// Logger appends search and thumbnail events to the session's JSONL log
// (the file `storesearch events` and `storesearch stats` read) and mirrors
// them into the debug overlay's RingBuffer. Safe for concurrent use. Emit
// never blocks the main loop: when the queue is full the event is dropped
// and counted, and Close reports the count on stderr.
type Logger struct {
	mu        sync.Mutex
	ring      *RingBuffer
	sessionID string
	ch        chan entry
	w         io.Writer
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w under a fresh random session ID,
// which `storesearch stats` uses to count sessions. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	var sid [8]byte
	_, _ = rand.Read(sid[:])

	l := &Logger{
		sessionID: hex.EncodeToString(sid[:]),
		ch:        make(chan entry, queueSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger returns a Logger that discards everything, for the
// headless search command and for components built without an event log.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for e := range l.ch {
		if _, err := l.w.Write(e.line); err != nil {
			l.dropped.Add(1)
		}

		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()

		if ring != nil {
			ring.Push(e.ev)
		}
	}
}

// Emit queues e, stamping Time (if unset) and SessionID.
// Emit racing Close is safe; the event is counted as dropped.
func (l *Logger) Emit(e Event) {
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	select {
	case l.ch <- entry{line: line, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is recorded as "".
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: msg})
}

// SetRingBuffer mirrors every written event into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.mu.Lock()
	l.ring = ring
	l.mu.Unlock()
}

// SessionID returns the random ID stamped on this Logger's events.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Dropped returns how many events were lost.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes queued events and stops the writer. Idempotent.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done

		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "storesearch: %d events dropped in session %s\n", n, l.sessionID)
		}
	})
}
