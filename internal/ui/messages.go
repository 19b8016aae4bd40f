// Package ui provides the Bubble Tea TUI for storesearch.
package ui

import (
	"github.com/abelbrown/storesearch/internal/catalog"
	"github.com/abelbrown/storesearch/internal/coord"
	"github.com/abelbrown/storesearch/internal/snapshot"
)

// SnapshotApplied is sent when the coordinator replaces a surface's
// contents.
type SnapshotApplied struct {
	Surface coord.Surface
	Snap    snapshot.Snapshot
	Items   catalog.Index
}

// ItemReconfigured is sent when an item's artwork finished loading for a
// surface.
type ItemReconfigured struct {
	Surface coord.Surface
	ID      catalog.ItemID
}

// SearchStateChanged is sent when a search task starts or finishes.
type SearchStateChanged struct {
	Searching bool
	Query     catalog.Query
}
