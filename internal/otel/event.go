// Package otel records structured search lifecycle events.
//
// Events are typed structs serialized as JSONL. The Logger writes them from
// a background goroutine so emitting never blocks the main loop, and can
// mirror them into a RingBuffer that the debug overlay reads.
package otel

import (
	"encoding/json"
	"time"
)

// Level is event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names what happened, as "<subsystem>.<action>".
type EventKind string

const (
	// Search cycle
	KindInput          EventKind = "search.input"
	KindSearchStart    EventKind = "search.start"
	KindScopeResult    EventKind = "search.scope_result"
	KindSearchStale    EventKind = "search.stale"
	KindSearchApply    EventKind = "search.apply"
	KindSearchCancel   EventKind = "search.cancel"
	KindSearchComplete EventKind = "search.complete"
	KindSearchCleared  EventKind = "search.cleared"

	// Network
	KindFetchError  EventKind = "fetch.error"
	KindDecodeError EventKind = "fetch.decode_error"

	// Thumbnails
	KindImageStart    EventKind = "image.start"
	KindImageLoaded   EventKind = "image.loaded"
	KindImageCancel   EventKind = "image.cancel"
	KindImageError    EventKind = "image.error"
	KindImageCacheHit EventKind = "image.cache_hit"

	// Process
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Emitted only when STORESEARCH_TRACE is set.
	KindTrace EventKind = "trace.loop"
)

// Event is one observability record. Only Kind is required.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "coord", "imagetask", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	QueryID   string         `json:"qid,omitempty"` // one per search cycle
	Term      string         `json:"term,omitempty"`
	Scope     string         `json:"scope,omitempty"`
	Surface   string         `json:"surface,omitempty"` // "table" or "grid"
	Row       string         `json:"row,omitempty"`
	Count     int            `json:"count,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as fractional milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
