// Package imagetask tracks in-flight thumbnail downloads per rendered row.
//
// A Registry belongs to one rendering surface. It holds at most one task
// per RowKey: requesting a row again cancels and replaces its task, which
// is what keeps a recycled row from showing a stale thumbnail.
package imagetask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/storesearch/internal/logging"
	"github.com/abelbrown/storesearch/internal/otel"
)

// RowKey is a row position on a surface.
type RowKey struct {
	Section int
	Row     int
}

func (k RowKey) String() string {
	return fmt.Sprintf("%d.%d", k.Section, k.Row)
}

// Source downloads and caches image bytes.
type Source interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
	HasImage(url string) bool
}

// Poster runs closures on the main loop.
type Poster interface {
	Post(fn func()) bool
}

type task struct {
	id      uint64
	url     string
	cancel  context.CancelFunc
	started time.Time
}

// Registry is the per-surface task map.
// Every method is main loop only; completions are posted back to the loop.
type Registry struct {
	surface string
	src     Source
	loop    Poster
	logger  *log.Logger
	events  *otel.Logger

	tasks map[RowKey]*task
	seq   uint64
}

// New creates a Registry for surface ("table", "grid"). logger and events
// may be nil.
func New(surface string, src Source, loop Poster, logger *log.Logger, events *otel.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	if events == nil {
		events = otel.NewNullLogger()
	}
	return &Registry{
		surface: surface,
		src:     src,
		loop:    loop,
		logger:  logger,
		events:  events,
		tasks:   make(map[RowKey]*task),
	}
}

// Request loads url for the row at key and calls onLoaded on the main loop
// once the bytes are cached. Any task already registered for key is
// cancelled first. Returns false without fetching when url is empty or
// already cached, since the row is then not showing a placeholder.
func (r *Registry) Request(key RowKey, url string, onLoaded func()) bool {
	r.Cancel(key)

	if url == "" {
		return false
	}
	if r.src.HasImage(url) {
		r.emit(otel.KindImageCacheHit, key, 0, nil)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.seq++
	t := &task{id: r.seq, url: url, cancel: cancel, started: time.Now()}
	r.tasks[key] = t
	r.emit(otel.KindImageStart, key, 0, nil)

	go func() {
		_, err := r.src.FetchImage(ctx, url)
		r.loop.Post(func() { r.finish(ctx, key, t, err, onLoaded) })
	}()
	return true
}

// finish runs on the main loop when a task's fetch returns.
func (r *Registry) finish(ctx context.Context, key RowKey, t *task, err error, onLoaded func()) {
	defer t.cancel()

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		// Superseded. Cancel already removed or replaced the entry.
		r.emit(otel.KindImageCancel, key, time.Since(t.started), nil)
		return
	}

	if err != nil {
		r.logger.Error("image fetch failed", "surface", r.surface, "row", key, "url", t.url, "err", err)
		r.emit(otel.KindImageError, key, time.Since(t.started), err)
		r.remove(key, t)
		return
	}

	r.emit(otel.KindImageLoaded, key, time.Since(t.started), nil)
	if onLoaded != nil {
		onLoaded()
	}
	r.remove(key, t)
}

// remove deletes key only if it still maps to t; onLoaded may have
// installed a newer task for the same row.
func (r *Registry) remove(key RowKey, t *task) {
	if cur, ok := r.tasks[key]; ok && cur == t {
		delete(r.tasks, key)
	}
}

// Cancel stops and forgets the task for key, if any.
func (r *Registry) Cancel(key RowKey) {
	t, ok := r.tasks[key]
	if !ok {
		return
	}
	t.cancel()
	delete(r.tasks, key)
}

// CancelAll stops every task and empties the registry.
func (r *Registry) CancelAll() {
	for key, t := range r.tasks {
		t.cancel()
		delete(r.tasks, key)
	}
}

// Len returns the number of live tasks.
func (r *Registry) Len() int {
	return len(r.tasks)
}

// Active reports whether key has a live task.
func (r *Registry) Active(key RowKey) bool {
	_, ok := r.tasks[key]
	return ok
}

// Surface returns the surface name given to New.
func (r *Registry) Surface() string {
	return r.surface
}

func (r *Registry) emit(kind otel.EventKind, key RowKey, dur time.Duration, err error) {
	ev := otel.Event{
		Level:   otel.LevelDebug,
		Kind:    kind,
		Comp:    "imagetask",
		Surface: r.surface,
		Row:     key.String(),
		Dur:     dur,
	}
	if err != nil {
		ev.Level = otel.LevelWarn
		ev.Err = err.Error()
	}
	r.events.Emit(ev)
}
