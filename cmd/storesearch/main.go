// Command storesearch is a terminal storefront search.
//
// Usage:
//
//	storesearch [flags]          Interactive search (TUI)
//	storesearch search <term>    One-shot search, printed as sections
//	storesearch events           JSONL event log viewer
//	storesearch stats            Event log statistics
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/coord"
	"github.com/abelbrown/storesearch/internal/logging"
	"github.com/abelbrown/storesearch/internal/otel"
	"github.com/abelbrown/storesearch/internal/ui"
)

const usage = `storesearch - search apps, books, music and movies from the terminal

Usage:
  storesearch [flags]
  storesearch <command> [flags]

Commands:
  search      One-shot search, printed as sections
  events      JSONL event log viewer
  stats       Event log statistics

Environment:
  STORESEARCH_ENDPOINT   Search endpoint (default: https://itunes.apple.com/search)
  STORESEARCH_LANG       Result language (default: en_us)
  STORESEARCH_TRACE      Record main-loop trace events

Flags:
`

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "search", "events", "stats":
			cmd := os.Args[1]
			// Strip the program name + subcommand so flag sets see only their flags
			os.Args = os.Args[1:]
			switch cmd {
			case "search":
				runSearch()
			case "events":
				runEvents()
			case "stats":
				runStats()
			}
			return
		}
	}
	runTUI()
}

func runTUI() {
	fs := pflag.NewFlagSet("storesearch", pflag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default ~/.storesearch/config.json)")
	lang := fs.String("lang", "", "Result language, e.g. en_us")
	limit := fs.Int("limit", 0, "Results per scope (1-200)")
	eventsPath := fs.String("events", "", "Event log path (default ~/.storesearch/storesearch.events.jsonl)")
	scopeName := fs.String("scope", "", "Initial scope: all, movies, music, apps, books")
	grid := fs.Bool("grid", false, "Start in the grid view")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	if *lang != "" {
		cfg.Search.Lang = *lang
	}
	if *limit != 0 {
		cfg.Search.Limit = *limit
	}
	if *scopeName != "" {
		cfg.UI.Scope = *scopeName
	}
	if *grid {
		cfg.UI.View = "grid"
	}
	if *logLevel != "" {
		cfg.UI.LogLevel = *logLevel
	}
	cfg.Validate()

	if err := logging.Init(cfg.UI.LogDir, logging.ParseLevel(cfg.UI.LogLevel)); err != nil {
		fatalf("%v", err)
	}
	defer logging.Close()

	// Event log
	if *eventsPath == "" {
		*eventsPath = eventLogPath()
	}
	evFile, err := os.OpenFile(*eventsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fatalf("open event log: %v", err)
	}
	defer evFile.Close()
	events := otel.NewLogger(evFile)
	defer events.Close()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)

	client := newClient(cfg)

	// Renderers forward to the program, which does not exist yet.
	var relay ui.Relay
	coordinator := coord.NewCoordinator(client,
		ui.NewRenderer(coord.SurfaceTable, &relay),
		ui.NewRenderer(coord.SurfaceGrid, &relay),
		coord.Options{
			Debounce: cfg.Debounce(),
			Timeout:  cfg.Timeout(),
			Logger:   logging.WithPrefix("coord"),
			Events:   events,
		})

	scope, ok := catalog.ParseScope(cfg.UI.Scope)
	if !ok {
		logging.Warn("unknown scope in config, using All", "scope", cfg.UI.Scope)
	}
	view := coord.SurfaceTable
	if cfg.UI.View == "grid" {
		view = coord.SurfaceGrid
	}

	app := ui.NewApp(ui.AppConfig{
		Search: coordinator,
		Images: client,
		Ring:   ring,
		Scope:  scope,
		View:   view,
	})

	// Create program
	program := tea.NewProgram(app, tea.WithAltScreen())
	relay.Attach(program)

	ctx, cancel := context.WithCancel(context.Background())
	coordinator.Start(ctx)
	logging.Info("session started", "session", events.SessionID(), "endpoint", cfg.Search.Endpoint)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("program exited", "err", err)
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()
}
