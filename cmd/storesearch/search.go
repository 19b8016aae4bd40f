package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/coord"
	"github.com/abelbrown/storesearch/internal/logging"
	"github.com/abelbrown/storesearch/internal/otel"
	"github.com/abelbrown/storesearch/internal/snapshot"
	"github.com/abelbrown/storesearch/internal/ui"
)

// printRenderer keeps the latest item index and signals when the search
// cycle for its term finishes.
type printRenderer struct {
	term string

	mu    sync.Mutex
	items catalog.Index
	done  chan struct{}
	once  sync.Once
}

func newPrintRenderer(term string) *printRenderer {
	return &printRenderer{term: term, done: make(chan struct{})}
}

func (r *printRenderer) ApplySnapshot(_ snapshot.Snapshot, items catalog.Index) {
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
}

func (r *printRenderer) ReconfigureItem(catalog.ItemID) {}

func (r *printRenderer) SearchState(searching bool, q catalog.Query) {
	if !searching && q.Term == r.term {
		r.once.Do(func() { close(r.done) })
	}
}

func (r *printRenderer) index() catalog.Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items
}

func runSearch() {
	fs := pflag.NewFlagSet("search", pflag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default ~/.storesearch/config.json)")
	scopeName := fs.StringP("scope", "s", "all", "Scope: all, movies, music, apps, books")
	limit := fs.IntP("limit", "n", 0, "Results per scope (1-200)")
	lang := fs.String("lang", "", "Result language, e.g. en_us")
	wait := fs.Duration("wait", time.Minute, "Give up after this long")
	verbose := fs.BoolP("verbose", "v", false, "Log to stderr")
	fs.Parse(os.Args[1:])

	term := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(term) == "" {
		fmt.Fprintln(os.Stderr, "usage: storesearch search [--scope S] [--limit N] <term...>")
		os.Exit(1)
	}
	scope, ok := catalog.ParseScope(*scopeName)
	if !ok {
		fatalf("unknown scope %q", *scopeName)
	}

	cfg := loadConfig(*configPath)
	if *limit != 0 {
		cfg.Search.Limit = *limit
	}
	if *lang != "" {
		cfg.Search.Lang = *lang
	}
	cfg.Validate()

	logger := logging.Discard()
	if *verbose {
		logger = logging.New(os.Stderr, logging.ParseLevel("debug"))
	}
	logging.Logger = logger

	client := newClient(cfg)
	out := newPrintRenderer(term)
	coordinator := coord.NewCoordinator(client, out, nil, coord.Options{
		Debounce: time.Millisecond,
		Timeout:  cfg.Timeout(),
		Logger:   logger.WithPrefix("coord"),
		Events:   otel.NewNullLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	coordinator.Start(ctx)
	coordinator.InputChanged(term, scope)

	select {
	case <-out.done:
	case <-time.After(*wait):
		fmt.Fprintf(os.Stderr, "storesearch: search did not finish within %s; printing partial results\n", *wait)
	}

	snap := coordinator.Snapshot()
	cancel()
	coordinator.Wait()

	printSnapshot(os.Stdout, snap, out.index())
}

// printSnapshot writes snap section by section.
func printSnapshot(w io.Writer, snap snapshot.Snapshot, items catalog.Index) {
	if snap.Empty() {
		fmt.Fprintf(w, "No results for %q.\n", snap.Term)
		return
	}
	for i, sec := range snap.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, ui.SectionHeader.Render(fmt.Sprintf("%s (%d)", sec.Title, len(sec.IDs))))
		for _, id := range sec.IDs {
			it, ok := items.Get(id)
			if !ok {
				continue
			}
			line := fmt.Sprintf("  %-40s", truncate(it.Name, 40))
			if it.Artist != "" {
				line += "  " + truncate(it.Artist, 28)
			}
			if it.Price != "" {
				line += "  " + ui.MetaItem.Render(it.Price)
			}
			fmt.Fprintln(w, line)
		}
	}
}
