package catalog

import (
	"net/url"
	"strconv"
)

// Defaults for the fixed query parameters.
const (
	DefaultLang  = "en_us"
	DefaultLimit = 30
)

// Query is a term searched within one scope. Queries are comparable;
// equality decides whether a returning result is still current.
type Query struct {
	Term  string
	Scope Scope
}

// Empty reports whether there is no term. Whitespace is a term.
func (q Query) Empty() bool {
	return q.Term == ""
}

// Params builds the endpoint parameter set for q.
// lang and limit fall back to DefaultLang and DefaultLimit when unset.
func (q Query) Params(lang string, limit int) url.Values {
	if lang == "" {
		lang = DefaultLang
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	v := url.Values{}
	v.Set("term", q.Term)
	v.Set("media", q.Scope.MediaType())
	v.Set("lang", lang)
	v.Set("limit", strconv.Itoa(limit))
	return v
}

// Current reports whether a result produced by q should still be shown
// given the live term and scope: the term must match exactly, and the
// live scope must be All or q's own scope.
func (q Query) Current(liveTerm string, liveScope Scope) bool {
	if q.Term != liveTerm {
		return false
	}
	return liveScope == ScopeAll || liveScope == q.Scope
}
