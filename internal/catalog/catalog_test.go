package catalog

import "testing"

func TestScopeExpandAll(t *testing.T) {
	got := ScopeAll.Expand()
	if len(got) != 4 {
		t.Fatalf("expected 4 scopes, got %d", len(got))
	}
	seen := map[Scope]bool{}
	for _, s := range got {
		if !s.Concrete() {
			t.Errorf("expanded scope %v is not concrete", s)
		}
		seen[s] = true
	}
	for _, want := range []Scope{ScopeApps, ScopeBooks, ScopeMusic, ScopeMovies} {
		if !seen[want] {
			t.Errorf("missing %v in expansion", want)
		}
	}
}

func TestScopeExpandConcrete(t *testing.T) {
	got := ScopeBooks.Expand()
	if len(got) != 1 || got[0] != ScopeBooks {
		t.Errorf("expected [Books], got %v", got)
	}
}

func TestScopeMediaTypes(t *testing.T) {
	cases := map[Scope]string{
		ScopeAll:    "all",
		ScopeMovies: "movie",
		ScopeMusic:  "music",
		ScopeApps:   "software",
		ScopeBooks:  "ebook",
	}
	for s, want := range cases {
		if s.MediaType() != want {
			t.Errorf("%v: expected %q, got %q", s, want, s.MediaType())
		}
	}
}

func TestScopeCycle(t *testing.T) {
	s := ScopeAll
	for range Scopes {
		s = s.Next()
	}
	if s != ScopeAll {
		t.Errorf("expected full cycle back to All, got %v", s)
	}
	if ScopeAll.Prev() != ScopeBooks {
		t.Errorf("expected All.Prev() = Books, got %v", ScopeAll.Prev())
	}
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		in   string
		want Scope
		ok   bool
	}{
		{"apps", ScopeApps, true},
		{"software", ScopeApps, true},
		{" Movies ", ScopeMovies, true},
		{"EBOOK", ScopeBooks, true},
		{"podcasts", ScopeAll, false},
	}
	for _, tc := range cases {
		got, ok := ParseScope(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseScope(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestKindCategory(t *testing.T) {
	cases := []struct {
		kind Kind
		want Scope
		ok   bool
	}{
		{KindSong, ScopeMusic, true},
		{KindAlbum, ScopeMusic, true},
		{KindSoftware, ScopeApps, true},
		{KindEBook, ScopeBooks, true},
		{KindMovie, ScopeMovies, true},
		{"feature_movies", ScopeMovies, true},
		{"podcast", ScopeAll, false},
	}
	for _, tc := range cases {
		got, ok := tc.kind.Category()
		if got != tc.want || ok != tc.ok {
			t.Errorf("%q.Category() = %v, %v; want %v, %v", tc.kind, got, ok, tc.want, tc.ok)
		}
	}
}

func TestQueryParams(t *testing.T) {
	q := Query{Term: "jack johnson", Scope: ScopeMusic}
	v := q.Params("", 0)

	if v.Get("term") != "jack johnson" {
		t.Errorf("term = %q", v.Get("term"))
	}
	if v.Get("media") != "music" {
		t.Errorf("media = %q", v.Get("media"))
	}
	if v.Get("lang") != "en_us" {
		t.Errorf("lang = %q", v.Get("lang"))
	}
	if v.Get("limit") != "30" {
		t.Errorf("limit = %q", v.Get("limit"))
	}
	if len(v) != 4 {
		t.Errorf("expected exactly 4 params, got %d", len(v))
	}
}

func TestQueryCurrent(t *testing.T) {
	q := Query{Term: "a", Scope: ScopeMusic}

	if !q.Current("a", ScopeAll) {
		t.Error("result should be current under All")
	}
	if !q.Current("a", ScopeMusic) {
		t.Error("result should be current under its own scope")
	}
	if q.Current("a", ScopeBooks) {
		t.Error("result should be stale under a different concrete scope")
	}
	if q.Current("ab", ScopeAll) {
		t.Error("result should be stale once the term changed")
	}
}

func TestQueryEmpty(t *testing.T) {
	if !(Query{}).Empty() {
		t.Error("zero query should be empty")
	}
	if (Query{Term: " "}).Empty() {
		t.Error("whitespace is still a term")
	}
	if (Query{Term: "x"}).Empty() {
		t.Error("non-blank term should not be empty")
	}
}

func TestIndexGet(t *testing.T) {
	x := Index{1: {ID: 1, Name: "one"}}
	if it, ok := x.Get(1); !ok || it.Name != "one" {
		t.Errorf("Get(1) = %v, %v", it, ok)
	}
	if _, ok := x.Get(2); ok {
		t.Error("Get(2) should miss")
	}
}
