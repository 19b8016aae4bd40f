package snapshot

import "github.com/abelbrown/storesearch/internal/catalog"

// Aggregator accumulates items across the scopes of one search cycle.
// Not safe for concurrent use: the coordinator only touches it from the
// main loop.
type Aggregator struct {
	term  string
	scope catalog.Scope
	items []catalog.Item
	seen  map[catalog.ItemID]int // ID -> index into items
	last  Snapshot
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[catalog.ItemID]int)}
}

// Reset discards every accumulated item and starts a cycle for term.
func (a *Aggregator) Reset(term string, scope catalog.Scope) {
	a.term = term
	a.scope = scope
	a.items = nil
	a.seen = make(map[catalog.ItemID]int)
	a.last = Snapshot{Term: term, Scope: scope}
}

// SetScope records the live scope and rebuilds the current snapshot for
// it, so a renderer that picks its layout by scope can switch right away.
// The accumulated items are unchanged.
func (a *Aggregator) SetScope(scope catalog.Scope) Snapshot {
	a.scope = scope
	a.last = Regroup(a.term, a.scope, a.items)
	return a.last
}

// Append adds items to the running total and regroups everything.
// An item whose ID is already present is dropped, keeping IDs unique.
// The returned snapshot replaces any earlier one.
func (a *Aggregator) Append(items []catalog.Item) Snapshot {
	for _, it := range items {
		if _, dup := a.seen[it.ID]; dup {
			continue
		}
		a.seen[it.ID] = len(a.items)
		a.items = append(a.items, it)
	}
	a.last = Regroup(a.term, a.scope, a.items)
	return a.last
}

// Snapshot returns the most recent snapshot.
func (a *Aggregator) Snapshot() Snapshot {
	return a.last
}

// Items returns a copy of the accumulated items in arrival order.
func (a *Aggregator) Items() []catalog.Item {
	out := make([]catalog.Item, len(a.items))
	copy(out, a.items)
	return out
}

// Item looks up an accumulated item by ID.
func (a *Aggregator) Item(id catalog.ItemID) (catalog.Item, bool) {
	i, ok := a.seen[id]
	if !ok {
		return catalog.Item{}, false
	}
	return a.items[i], true
}

// Index returns a detached lookup of every accumulated item.
func (a *Aggregator) Index() catalog.Index {
	x := make(catalog.Index, len(a.items))
	for _, it := range a.items {
		x[it.ID] = it
	}
	return x
}

// Len returns the number of accumulated items.
func (a *Aggregator) Len() int {
	return len(a.items)
}
