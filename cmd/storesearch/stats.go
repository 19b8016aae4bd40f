package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"
)

// logStats summarizes an event log.
type logStats struct {
	Events   int
	Sessions map[string]bool
	Kinds    map[string]int

	Searches  int
	Completed int
	Cancelled int
	Stale     int
	Applied   int
	Errors    map[string]int // by scope

	ImagesLoaded int
	ImageHits    int

	durations []float64 // completed search cycles, ms
}

func newLogStats() *logStats {
	return &logStats{
		Sessions: make(map[string]bool),
		Kinds:    make(map[string]int),
		Errors:   make(map[string]int),
	}
}

// add folds one event into the totals.
func (s *logStats) add(ev eventRecord) {
	s.Events++
	s.Kinds[ev.Kind]++
	if ev.SessionID != "" {
		s.Sessions[ev.SessionID] = true
	}

	switch ev.Kind {
	case "search.start":
		s.Searches++
	case "search.complete":
		s.Completed++
		if ev.DurMs > 0 {
			s.durations = append(s.durations, ev.DurMs)
		}
	case "search.cancel":
		s.Cancelled++
	case "search.stale":
		s.Stale++
	case "search.scope_result":
		s.Applied++
	case "fetch.error", "fetch.decode_error":
		scope := ev.Scope
		if scope == "" {
			scope = "?"
		}
		s.Errors[scope]++
	case "image.loaded":
		s.ImagesLoaded++
	case "image.cache_hit":
		s.ImageHits++
	}
}

// percentile returns the p-th percentile (0-100) of completed search durations.
func (s *logStats) percentile(p float64) float64 {
	if len(s.durations) == 0 {
		return 0
	}
	sorted := append([]float64(nil), s.durations...)
	sort.Float64s(sorted)
	idx := int(p / 100 * float64(len(sorted)-1))
	return sorted[idx]
}

// staleRatio is the share of scope responses dropped as stale.
func (s *logStats) staleRatio() float64 {
	total := s.Applied + s.Stale
	if total == 0 {
		return 0
	}
	return float64(s.Stale) / float64(total)
}

// hitRatio is the share of artwork requests served from cache.
func (s *logStats) hitRatio() float64 {
	total := s.ImagesLoaded + s.ImageHits
	if total == 0 {
		return 0
	}
	return float64(s.ImageHits) / float64(total)
}

// collectStats reads JSONL events from r, skipping malformed lines and
// events older than since (zero means all).
func collectStats(r io.Reader, since time.Time) (*logStats, error) {
	st := newLogStats()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !since.IsZero() && ev.Time.Before(since) {
			continue
		}
		st.add(ev)
	}
	return st, scanner.Err()
}

func runStats() {
	fs := pflag.NewFlagSet("stats", pflag.ExitOnError)
	path := fs.String("file", "", "Event log path (default ~/.storesearch/storesearch.events.jsonl)")
	window := fs.Duration("since", 0, "Only count events newer than this (e.g. 24h)")
	kinds := fs.Bool("kinds", false, "List counts for every event kind")
	fs.Parse(os.Args[1:])

	logPath := *path
	if logPath == "" {
		logPath = eventLogPath()
	}
	f, err := os.Open(logPath)
	if err != nil {
		fatalf("%v", err)
	}
	defer f.Close()

	var since time.Time
	if *window > 0 {
		since = time.Now().Add(-*window)
	}
	st, err := collectStats(f, since)
	if err != nil {
		fatalf("read %s: %v", logPath, err)
	}

	fmt.Printf("Events:                %d\n", st.Events)
	fmt.Printf("Sessions:              %d\n", len(st.Sessions))

	fmt.Printf("\nSearches started:      %d\n", st.Searches)
	fmt.Printf("Searches completed:    %d\n", st.Completed)
	fmt.Printf("Scope responses:       %d applied, %d stale (%.1f%% stale)\n",
		st.Applied, st.Stale, st.staleRatio()*100)
	fmt.Printf("Cancellations:         %d\n", st.Cancelled)
	if len(st.durations) > 0 {
		fmt.Printf("Cycle time:            p50 %.0fms, p90 %.0fms, max %.0fms\n",
			st.percentile(50), st.percentile(90), st.percentile(100))
	}

	if len(st.Errors) > 0 {
		fmt.Println("\nFetch errors by scope:")
		for _, scope := range sortedKeys(st.Errors) {
			fmt.Printf("  %-10s %d\n", scope, st.Errors[scope])
		}
	}

	fmt.Printf("\nArtwork loaded:        %d\n", st.ImagesLoaded)
	fmt.Printf("Artwork cache hits:    %d (%.1f%%)\n", st.ImageHits, st.hitRatio()*100)

	if *kinds {
		fmt.Printf("\nKinds (%d):\n", len(st.Kinds))
		for _, k := range sortedKeys(st.Kinds) {
			fmt.Printf("  %-24s %d\n", k, st.Kinds[k])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
