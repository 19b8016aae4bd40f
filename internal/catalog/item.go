package catalog

// ItemID identifies an item for the lifetime of a session.
type ItemID int64

// Kind is the storefront's kind token for an item ("song", "ebook", ...).
// Tokens outside the known set are kept verbatim.
type Kind string

const (
	KindMovie    Kind = "feature-movie"
	KindSong     Kind = "song"
	KindAlbum    Kind = "album"
	KindSoftware Kind = "software"
	KindEBook    Kind = "ebook"

	// kindLegacyMovie is an older spelling some clients filter on.
	kindLegacyMovie Kind = "feature_movies"
)

// Category maps a kind to the section it is shown under.
// Songs and albums share the Music section. ok is false for kinds
// that have no section (music videos, podcasts, ...).
func (k Kind) Category() (s Scope, ok bool) {
	switch k {
	case KindSoftware:
		return ScopeApps, true
	case KindEBook:
		return ScopeBooks, true
	case KindSong, KindAlbum:
		return ScopeMusic, true
	case KindMovie, kindLegacyMovie:
		return ScopeMovies, true
	}
	return ScopeAll, false
}

// Item is one search result. Items are values and never modified after
// decoding.
type Item struct {
	ID          ItemID
	Kind        Kind
	Name        string
	Artist      string
	Description string
	Genre       string
	Price       string
	StoreURL    string
	ArtworkURL  string
}

// Index is a read-only ID lookup handed to renderers alongside a snapshot.
type Index map[ItemID]Item

// Get returns the item with the given ID.
func (x Index) Get(id ItemID) (Item, bool) {
	it, ok := x[id]
	return it, ok
}
