// Package coord orchestrates catalog searches for storesearch.
//
// The Coordinator debounces input, runs one search task at a time, fans a
// term out across scopes, drops results that no longer match what the user
// is looking at, and feeds the survivors to the aggregator and renderers.
// It also owns the per-surface thumbnail registries.
//
// Goroutine safety:
// Exported methods may be called from any goroutine. They post to an
// internal mainloop.Loop, and every field below the "main loop only"
// marker is touched exclusively from closures running on it. Renderer
// methods are always invoked on that loop.
package coord

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/fetch"
	"github.com/abelbrown/storesearch/internal/imagetask"
	"github.com/abelbrown/storesearch/internal/logging"
	"github.com/abelbrown/storesearch/internal/mainloop"
	"github.com/abelbrown/storesearch/internal/otel"
	"github.com/abelbrown/storesearch/internal/snapshot"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// search fires.
const DefaultDebounce = 300 * time.Millisecond

// fetchTimeout bounds each per-scope fetch.
const fetchTimeout = 30 * time.Second

// fetcher interface for dependency injection (testing).
type fetcher interface {
	FetchItems(ctx context.Context, q catalog.Query) ([]catalog.Item, error)
}

// Renderer is a rendering surface fed by the Coordinator.
type Renderer interface {
	// ApplySnapshot replaces everything shown with snap. items resolves
	// every ID in snap and must be treated as read-only.
	ApplySnapshot(snap snapshot.Snapshot, items catalog.Index)
	// ReconfigureItem reports that id's artwork is now cached.
	ReconfigureItem(id catalog.ItemID)
}

// ProgressRenderer is optionally implemented by a Renderer that shows
// whether a search is in flight.
type ProgressRenderer interface {
	SearchState(searching bool, q catalog.Query)
}

// Surface identifies one of the two rendering surfaces.
type Surface int

const (
	SurfaceTable Surface = iota
	SurfaceGrid
	numSurfaces
)

func (s Surface) String() string {
	if s == SurfaceGrid {
		return "grid"
	}
	return "table"
}

// Options tunes a Coordinator. Zero fields take defaults.
type Options struct {
	Debounce time.Duration
	Timeout  time.Duration // per-scope fetch timeout
	Logger   *log.Logger
	Events   *otel.Logger
}

// Coordinator runs the search pipeline.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	loop      *mainloop.Loop
	fetcher   fetcher
	images    imagetask.Source
	renderers [numSurfaces]Renderer
	debounce  time.Duration
	timeout   time.Duration
	logger    *log.Logger
	events    *otel.Logger
	wg        sync.WaitGroup

	// main loop only
	ctx          context.Context
	registries   [numSurfaces]*imagetask.Registry
	agg          *snapshot.Aggregator
	live         catalog.Query
	gen          uint64 // bumped by every input; a debounce fires only if unchanged
	timer        *time.Timer
	searchCancel context.CancelFunc // nil when no search is running
	qid          string
	started      time.Time
}

// NewCoordinator creates a Coordinator backed by the real fetch client,
// which serves both searches and artwork.
func NewCoordinator(client *fetch.Client, table, grid Renderer, opts Options) *Coordinator {
	return NewCoordinatorWithFetcher(client, client, table, grid, opts)
}

// NewCoordinatorWithFetcher allows injecting a custom fetcher and image
// source (for testing). Either renderer may be nil.
func NewCoordinatorWithFetcher(f fetcher, images imagetask.Source, table, grid Renderer, opts Options) *Coordinator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Events == nil {
		opts.Events = otel.NewNullLogger()
	}
	if table == nil {
		table = nopRenderer{}
	}
	if grid == nil {
		grid = nopRenderer{}
	}

	c := &Coordinator{
		loop:      mainloop.New(),
		fetcher:   f,
		images:    images,
		renderers: [numSurfaces]Renderer{table, grid},
		debounce:  opts.Debounce,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		events:    opts.Events,
		ctx:       context.Background(),
		agg:       snapshot.NewAggregator(),
	}
	for s := Surface(0); s < numSurfaces; s++ {
		c.registries[s] = imagetask.New(s.String(), images, c.loop, opts.Logger, opts.Events)
	}
	return c
}

// Start runs the main loop until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	c.ctx = ctx
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop.Run(ctx)
		c.shutdown()
	}()
	c.events.Info(otel.KindStartup, "coord", "coordinator started")
}

// Wait blocks until the main loop and every search task have exited.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// shutdown runs after the loop has stopped, so it is the sole owner of
// loop state.
func (c *Coordinator) shutdown() {
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.searchCancel != nil {
		c.searchCancel()
		c.searchCancel = nil
	}
	for _, reg := range c.registries {
		reg.CancelAll()
	}
	c.events.Info(otel.KindShutdown, "coord", "coordinator stopped")
}

// InputChanged records the live term and scope and (re)arms the debounce.
// Any pending debounce is superseded.
func (c *Coordinator) InputChanged(term string, scope catalog.Scope) {
	c.post("input", func() { c.inputChanged(term, scope) })
}

func (c *Coordinator) inputChanged(term string, scope catalog.Scope) {
	prev := c.live.Scope
	c.live = catalog.Query{Term: term, Scope: scope}
	if snap := c.agg.SetScope(scope); scope != prev && !snap.Empty() {
		// Re-lay out what is already shown; the next cycle replaces it.
		c.apply(snap)
	}
	c.gen++
	gen := c.gen

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.post("debounce", func() {
			if gen != c.gen {
				return
			}
			c.fire()
		})
	})

	if otel.TraceEnabled() {
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindInput, Comp: "coord", Term: term, Scope: scope.String()})
	}
}

// fire starts a new search cycle for the live query.
func (c *Coordinator) fire() {
	q := c.live

	c.agg.Reset(q.Term, q.Scope)
	for _, reg := range c.registries {
		reg.CancelAll()
	}
	if c.searchCancel != nil {
		c.searchCancel()
		c.searchCancel = nil
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchCancel, Comp: "coord", QueryID: c.qid})
		if q.Empty() {
			c.progress(false, q)
		}
	}

	if q.Empty() {
		c.qid = ""
		c.apply(c.agg.Snapshot())
		c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchCleared, Comp: "coord"})
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.searchCancel = cancel
	c.qid = uuid.NewString()
	c.started = time.Now()
	scopes := q.Scope.Expand()

	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindSearchStart,
		Comp:    "coord",
		QueryID: c.qid,
		Term:    q.Term,
		Scope:   q.Scope.String(),
		Count:   len(scopes),
	})
	c.logger.Debug("search started", "qid", c.qid, "term", q.Term, "scope", q.Scope, "scopes", len(scopes))
	c.progress(true, q)

	c.wg.Add(1)
	go c.fanOut(ctx, c.qid, q.Term, scopes)
}

// fanOut fetches every scope in parallel and posts each result to the
// loop as it arrives.
func (c *Coordinator) fanOut(ctx context.Context, qid, term string, scopes []catalog.Scope) {
	defer c.wg.Done()

	var g errgroup.Group
	for _, scope := range scopes {
		g.Go(func() error {
			// Early exit if context cancelled
			if ctx.Err() != nil {
				return nil
			}
			c.fetchScope(ctx, qid, catalog.Query{Term: term, Scope: scope})
			return nil // never fail the group - errors reported per-scope
		})
	}
	_ = g.Wait()

	c.post("complete", func() { c.complete(ctx, qid) })
}

// fetchScope runs one scope's fetch with a timeout.
func (c *Coordinator) fetchScope(ctx context.Context, qid string, q catalog.Query) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	items, err := c.fetcher.FetchItems(fetchCtx, q)
	dur := time.Since(start)

	c.post("scope_result", func() { c.scopeResult(ctx, qid, q, items, err, dur) })
}

// scopeResult handles one scope's outcome on the loop.
func (c *Coordinator) scopeResult(ctx context.Context, qid string, q catalog.Query, items []catalog.Item, err error, dur time.Duration) {
	ev := otel.Event{
		Comp:    "coord",
		QueryID: qid,
		Term:    q.Term,
		Scope:   q.Scope.String(),
		Dur:     dur,
	}

	if ctx.Err() != nil || fetch.IsCancellation(err) {
		ev.Level, ev.Kind = otel.LevelDebug, otel.KindSearchCancel
		c.events.Emit(ev)
		return
	}

	if err != nil {
		c.logger.Error("scope fetch failed", "qid", qid, "term", q.Term, "scope", q.Scope, "err", err)
		ev.Level, ev.Kind, ev.Err = otel.LevelWarn, otel.KindFetchError, err.Error()
		c.events.Emit(ev)
		items = nil
	}

	if !q.Current(c.live.Term, c.live.Scope) {
		ev.Level, ev.Kind, ev.Count = otel.LevelDebug, otel.KindSearchStale, len(items)
		c.events.Emit(ev)
		return
	}

	snap := c.agg.Append(items)
	c.apply(snap)

	ev.Level, ev.Kind, ev.Count = otel.LevelInfo, otel.KindScopeResult, len(items)
	c.events.Emit(ev)
}

// complete closes out a search whose scopes have all reported.
func (c *Coordinator) complete(ctx context.Context, qid string) {
	if ctx.Err() != nil || qid != c.qid || c.searchCancel == nil {
		return
	}
	c.searchCancel()
	c.searchCancel = nil

	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindSearchComplete,
		Comp:    "coord",
		QueryID: qid,
		Term:    c.live.Term,
		Count:   c.agg.Len(),
		Dur:     time.Since(c.started),
	})
	c.progress(false, c.live)
}

// apply hands snap to every renderer.
func (c *Coordinator) apply(snap snapshot.Snapshot) {
	items := c.agg.Index()
	for _, r := range c.renderers {
		r.ApplySnapshot(snap, items)
	}
	c.events.Emit(otel.Event{
		Level:   otel.LevelDebug,
		Kind:    otel.KindSearchApply,
		Comp:    "coord",
		QueryID: c.qid,
		Term:    snap.Term,
		Count:   snap.Len(),
	})
}

func (c *Coordinator) progress(searching bool, q catalog.Query) {
	for _, r := range c.renderers {
		if p, ok := r.(ProgressRenderer); ok {
			p.SearchState(searching, q)
		}
	}
}

// RowVisible asks surface's registry to load the artwork for the item
// shown at key. When the bytes arrive the surface's renderer is told to
// reconfigure the item.
func (c *Coordinator) RowVisible(surface Surface, key imagetask.RowKey, id catalog.ItemID) {
	c.post("row_visible", func() {
		if surface < 0 || surface >= numSurfaces {
			return
		}
		it, ok := c.agg.Item(id)
		if !ok {
			return
		}
		r := c.renderers[surface]
		c.registries[surface].Request(key, it.ArtworkURL, func() { r.ReconfigureItem(id) })
	})
}

// RowHidden cancels the artwork task for a row that scrolled away or is
// about to show a different item.
func (c *Coordinator) RowHidden(surface Surface, key imagetask.RowKey) {
	c.post("row_hidden", func() {
		if surface < 0 || surface >= numSurfaces {
			return
		}
		c.registries[surface].Cancel(key)
	})
}

// ViewDisappeared cancels every artwork task on both surfaces.
func (c *Coordinator) ViewDisappeared() {
	c.post("view_disappeared", func() {
		for _, reg := range c.registries {
			reg.CancelAll()
		}
	})
}

// post queues fn on the loop. With tracing on, each task reports how long
// it waited in the queue and how long it ran.
func (c *Coordinator) post(name string, fn func()) {
	if !otel.TraceEnabled() {
		c.loop.Post(fn)
		return
	}
	queued := time.Now()
	c.loop.Post(func() {
		start := time.Now()
		fn()
		c.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindTrace,
			Comp:  "coord",
			Msg:   name,
			Dur:   time.Since(start),
			Extra: map[string]any{"wait_ms": float64(start.Sub(queued).Microseconds()) / 1000},
		})
	})
}

// Snapshot returns the current section snapshot. It runs on the loop, so
// it blocks until Start has been called and must not be called from a
// Renderer method.
func (c *Coordinator) Snapshot() snapshot.Snapshot {
	var s snapshot.Snapshot
	c.loop.Call(func() { s = c.agg.Snapshot() })
	return s
}

// Searching reports whether a search task is in flight. Same calling
// rules as Snapshot.
func (c *Coordinator) Searching() bool {
	var busy bool
	c.loop.Call(func() { busy = c.searchCancel != nil })
	return busy
}

// ImageTasks returns the number of live artwork tasks on surface. Same
// calling rules as Snapshot.
func (c *Coordinator) ImageTasks(surface Surface) int {
	var n int
	c.loop.Call(func() { n = c.registries[surface].Len() })
	return n
}

type nopRenderer struct{}

func (nopRenderer) ApplySnapshot(snapshot.Snapshot, catalog.Index) {}
func (nopRenderer) ReconfigureItem(catalog.ItemID)                 {}
