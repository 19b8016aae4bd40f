package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/storesearch/internal/config"
	"github.com/abelbrown/storesearch/internal/fetch"
	"github.com/abelbrown/storesearch/internal/logging"
)

// dataDir returns ~/.storesearch/, creating it if needed.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		fatalf("failed to get home directory: %v", err)
	}
	dir := filepath.Join(home, ".storesearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		fatalf("failed to create data directory: %v", err)
	}
	return dir
}

// eventLogPath returns the path to storesearch.events.jsonl.
func eventLogPath() string {
	return filepath.Join(dataDir(), "storesearch.events.jsonl")
}

// newClient builds the fetch client from cfg.
func newClient(cfg *config.Config) *fetch.Client {
	return fetch.NewClient(fetch.Options{
		Endpoint:          cfg.Search.Endpoint,
		Lang:              cfg.Search.Lang,
		Limit:             cfg.Search.Limit,
		Timeout:           cfg.Timeout(),
		RequestsPerMinute: cfg.Search.RequestsPerMinute,
		Burst:             cfg.Search.Burst,
		ImageCacheEntries: cfg.Images.CacheEntries,
		Logger:            logging.WithPrefix("fetch"),
	})
}

// loadConfig loads path or fatals.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fatalf("%v", err)
	}
	return cfg
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "storesearch: "+format+"\n", args...)
	os.Exit(1)
}
