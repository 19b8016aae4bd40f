// Package catalog holds the storefront data model: scopes, queries, and
// the immutable items decoded from search responses.
package catalog

import "strings"

// Scope is a category filter for a search.
// The zero value is ScopeAll.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeMovies
	ScopeMusic
	ScopeApps
	ScopeBooks
)

// Scopes lists every scope in the order the scope selector shows them.
var Scopes = []Scope{ScopeAll, ScopeMovies, ScopeMusic, ScopeApps, ScopeBooks}

// SectionOrder is the fixed order sections appear in a snapshot.
// It is deliberately different from the selector order.
var SectionOrder = []Scope{ScopeApps, ScopeBooks, ScopeMusic, ScopeMovies}

// Title returns the display title, also used as the section name.
func (s Scope) Title() string {
	switch s {
	case ScopeAll:
		return "All"
	case ScopeMovies:
		return "Movies"
	case ScopeMusic:
		return "Music"
	case ScopeApps:
		return "Apps"
	case ScopeBooks:
		return "Books"
	}
	return "Unknown"
}

// MediaType returns the search endpoint's media token for the scope.
func (s Scope) MediaType() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeMovies:
		return "movie"
	case ScopeMusic:
		return "music"
	case ScopeApps:
		return "software"
	case ScopeBooks:
		return "ebook"
	}
	return ""
}

func (s Scope) String() string {
	return s.Title()
}

// Concrete reports whether s names a single category (anything but All).
func (s Scope) Concrete() bool {
	return s != ScopeAll && s.MediaType() != ""
}

// Expand returns the concrete scopes a search on s fans out to.
// All expands to the four categories; any other scope is a singleton.
func (s Scope) Expand() []Scope {
	if s == ScopeAll {
		return []Scope{ScopeApps, ScopeBooks, ScopeMovies, ScopeMusic}
	}
	return []Scope{s}
}

// Next returns the scope after s in selector order, wrapping around.
func (s Scope) Next() Scope {
	return Scopes[(s.index()+1)%len(Scopes)]
}

// Prev returns the scope before s in selector order, wrapping around.
func (s Scope) Prev() Scope {
	return Scopes[(s.index()+len(Scopes)-1)%len(Scopes)]
}

func (s Scope) index() int {
	for i, sc := range Scopes {
		if sc == s {
			return i
		}
	}
	return 0
}

// ParseScope accepts a title ("Apps") or media token ("software"),
// case-insensitively.
func ParseScope(name string) (Scope, bool) {
	name = strings.TrimSpace(name)
	for _, s := range Scopes {
		if strings.EqualFold(name, s.Title()) || strings.EqualFold(name, s.MediaType()) {
			return s, true
		}
	}
	return ScopeAll, false
}
