// Package snapshot groups accumulated search results into the ordered,
// sectioned view that renderers apply wholesale.
package snapshot

import "github.com/abelbrown/storesearch/internal/catalog"

// Section is one titled group of item IDs.
type Section struct {
	Title string
	IDs   []catalog.ItemID
}

// Snapshot is the full sectioned view of the current item set.
// Sections appear in catalog.SectionOrder and are never empty.
type Snapshot struct {
	Term     string
	Scope    catalog.Scope
	Sections []Section
}

// Empty reports whether the snapshot has no sections.
func (s Snapshot) Empty() bool {
	return len(s.Sections) == 0
}

// Len returns the total number of item IDs across sections.
func (s Snapshot) Len() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.IDs)
	}
	return n
}

// Titles returns the section titles in order.
func (s Snapshot) Titles() []string {
	titles := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		titles[i] = sec.Title
	}
	return titles
}

// Regroup builds a snapshot from items. It is a pure function: the same
// inputs always produce an identical snapshot. Items keep their relative
// order inside a section. Items whose kind has no section are left out.
func Regroup(term string, scope catalog.Scope, items []catalog.Item) Snapshot {
	buckets := make(map[catalog.Scope][]catalog.ItemID, len(catalog.SectionOrder))
	for _, it := range items {
		cat, ok := it.Kind.Category()
		if !ok {
			continue
		}
		buckets[cat] = append(buckets[cat], it.ID)
	}

	snap := Snapshot{Term: term, Scope: scope}
	for _, cat := range catalog.SectionOrder {
		ids := buckets[cat]
		if len(ids) == 0 {
			continue
		}
		snap.Sections = append(snap.Sections, Section{Title: cat.Title(), IDs: ids})
	}
	return snap
}
