package otel

import (
	"sync"
	"testing"
)

func TestRingLastOrder(t *testing.T) {
	r := NewRingBuffer(8)
	for i := 0; i < 5; i++ {
		r.Push(Event{Kind: KindImageStart, Count: i})
	}

	got := r.Last(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, e := range got {
		if e.Count != i+2 {
			t.Errorf("got[%d].Count = %d, want %d", i, e.Count, i+2)
		}
	}
}

func TestRingWrapAround(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 10; i++ {
		r.Push(Event{Kind: KindImageStart, Count: i})
	}

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	for i, e := range snap {
		if e.Count != i+6 {
			t.Errorf("snap[%d].Count = %d, want %d", i, e.Count, i+6)
		}
	}
	if r.Len() != 4 || r.Cap() != 4 {
		t.Errorf("Len/Cap = %d/%d", r.Len(), r.Cap())
	}
}

func TestRingLastEdgeCases(t *testing.T) {
	r := NewRingBuffer(4)
	if r.Last(3) != nil {
		t.Error("empty ring should return nil")
	}
	r.Push(Event{Kind: KindStartup})
	if r.Last(0) != nil {
		t.Error("Last(0) should return nil")
	}
	if n := len(r.Last(10)); n != 1 {
		t.Errorf("Last(10) on 1 event returned %d", n)
	}
}

func TestRingStats(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Event{Kind: KindSearchStart})
	r.Push(Event{Kind: KindSearchStale})
	r.Push(Event{Kind: KindSearchStale})
	r.Push(Event{Kind: KindSearchApply})
	r.Push(Event{Kind: KindSearchApply}) // evicts the start

	stats := r.Stats()
	if stats[KindSearchStart] != 0 || stats[KindSearchStale] != 2 || stats[KindSearchApply] != 2 {
		t.Errorf("stats = %v", stats)
	}
}

func TestRingCopiesExtra(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"k": 1}
	r.Push(Event{Kind: KindStartup, Extra: extra})
	extra["k"] = 2

	if got := r.Last(1)[0].Extra["k"]; got != 1 {
		t.Errorf("ring aliases caller's map: got %v", got)
	}
}

func TestRingConcurrent(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Push(Event{Kind: KindTrace})
				_ = r.Stats()
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("expected full ring, got %d", r.Len())
	}
}
