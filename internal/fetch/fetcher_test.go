package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/storesearch/internal/catalog"
)

const searchFixture = `{
  "resultCount": 4,
  "results": [
    {"wrapperType": "track", "kind": "song", "trackId": 101, "collectionId": 900,
     "trackName": "Banana Pancakes", "artistName": "Jack Johnson",
     "artworkUrl100": "https://img.example/101.jpg", "trackPrice": 1.29, "currency": "USD"},
    {"wrapperType": "collection", "collectionType": "Album", "collectionId": 900,
     "collectionName": "In Between Dreams", "artistName": "Jack Johnson",
     "artworkUrl60": "https://img.example/900-60.jpg"},
    {"wrapperType": "track", "kind": "feature-movie", "trackId": 202,
     "trackName": "Thicker Than Water", "longDescription": "Surf film",
     "formattedPrice": "$9.99"},
    {"wrapperType": "track", "kind": "song", "trackName": "no id"}
  ]
}`

func TestFetchItemsDecodes(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "text/javascript")
		w.Write([]byte(searchFixture))
	}))
	defer server.Close()

	c := NewClient(Options{Endpoint: server.URL})
	items, err := c.FetchItems(context.Background(), catalog.Query{Term: "jack johnson", Scope: catalog.ScopeMusic})
	if err != nil {
		t.Fatalf("FetchItems failed: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items (record without id dropped), got %d", len(items))
	}

	song := items[0]
	if song.ID != 101 || song.Kind != catalog.KindSong || song.Name != "Banana Pancakes" {
		t.Errorf("unexpected song: %+v", song)
	}
	if song.ArtworkURL != "https://img.example/101.jpg" {
		t.Errorf("artwork = %q", song.ArtworkURL)
	}
	if song.Price != "1.29 USD" {
		t.Errorf("price = %q", song.Price)
	}

	album := items[1]
	if album.ID != 900 || album.Kind != catalog.KindAlbum || album.Name != "In Between Dreams" {
		t.Errorf("unexpected album: %+v", album)
	}
	if album.ArtworkURL != "https://img.example/900-60.jpg" {
		t.Errorf("album artwork should fall back to 60px, got %q", album.ArtworkURL)
	}

	movie := items[2]
	if movie.Kind != catalog.KindMovie || movie.Description != "Surf film" || movie.Price != "$9.99" {
		t.Errorf("unexpected movie: %+v", movie)
	}

	q := gotQuery.Load().(url.Values)
	if q.Get("media") != "music" || q.Get("lang") != "en_us" || q.Get("limit") != "30" {
		t.Errorf("unexpected query params: %v", q)
	}
}

func TestFetchItemsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Options{Endpoint: server.URL})
	_, err := c.FetchItems(context.Background(), catalog.Query{Term: "x", Scope: catalog.ScopeApps})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if netErr.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", netErr.Status)
	}
	if IsCancellation(err) {
		t.Error("HTTP error must not look like a cancellation")
	}
}

func TestFetchItemsConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	c := NewClient(Options{Endpoint: endpoint})
	_, err := c.FetchItems(context.Background(), catalog.Query{Term: "x", Scope: catalog.ScopeApps})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}

func TestFetchItemsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	c := NewClient(Options{Endpoint: server.URL})
	_, err := c.FetchItems(context.Background(), catalog.Query{Term: "x", Scope: catalog.ScopeBooks})

	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
}

func TestFetchItemsCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(Options{Endpoint: server.URL})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := c.FetchItems(ctx, catalog.Query{Term: "x", Scope: catalog.ScopeMovies})
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !IsCancellation(err) {
			t.Errorf("expected cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("FetchItems did not return after cancel")
	}
}

func TestFetchItemsAlreadyCancelled(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c := NewClient(Options{Endpoint: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchItems(ctx, catalog.Query{Term: "x"})
	if !IsCancellation(err) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("no request should be sent, got %d", hits.Load())
	}
}

func TestFetchImageMemoizes(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("PNGDATA"))
	}))
	defer server.Close()

	c := NewClient(Options{})
	imgURL := server.URL + "/art.png"

	for i := 0; i < 3; i++ {
		data, err := c.FetchImage(context.Background(), imgURL)
		if err != nil {
			t.Fatalf("FetchImage failed: %v", err)
		}
		if string(data) != "PNGDATA" {
			t.Errorf("data = %q", data)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 download, got %d", hits.Load())
	}
	if data, ok := c.CachedImage(imgURL); !ok || string(data) != "PNGDATA" {
		t.Errorf("CachedImage = %q, %v", data, ok)
	}
}

func TestFetchImageSharesConcurrentDownloads(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte("IMG"))
	}))
	defer server.Close()

	c := NewClient(Options{})
	imgURL := server.URL + "/shared.jpg"

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchImage(context.Background(), imgURL)
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("FetchImage failed: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 shared download, got %d", hits.Load())
	}
}

func TestFetchImageCancelledCallerDoesNotPoisonCache(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("LATE"))
	}))
	defer server.Close()

	c := NewClient(Options{})
	imgURL := server.URL + "/late.jpg"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.FetchImage(ctx, imgURL)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !IsCancellation(err) {
			t.Errorf("expected cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return promptly")
	}

	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for !c.HasImage(imgURL) {
		if time.Now().After(deadline) {
			t.Fatal("shared download never reached the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFetchImageHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(Options{})
	_, err := c.FetchImage(context.Background(), server.URL+"/missing.jpg")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if c.HasImage(server.URL + "/missing.jpg") {
		t.Error("failed download must not be cached")
	}
}

func TestSearchURL(t *testing.T) {
	c := NewClient(Options{Endpoint: "https://example.test/search", Lang: "ja_jp", Limit: 10})
	got := c.SearchURL(catalog.Query{Term: "a b", Scope: catalog.ScopeApps})
	want := "https://example.test/search?lang=ja_jp&limit=10&media=software&term=a+b"
	if got != want {
		t.Errorf("SearchURL = %q, want %q", got, want)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name string
		rec  searchRecord
		want string
	}{
		{"formatted wins", searchRecord{FormattedPrice: "Free", TrackPrice: 1.99, Currency: "USD"}, "Free"},
		{"track price", searchRecord{TrackPrice: 1.99, Currency: "USD"}, "1.99 USD"},
		{"collection fallback", searchRecord{CollectionPrice: 9.99, Currency: "EUR"}, "9.99 EUR"},
		{"no currency", searchRecord{TrackPrice: 1.99}, "1.99"},
		{"free without label", searchRecord{TrackPrice: 0, Currency: "USD"}, ""},
		{"negative means unavailable", searchRecord{TrackPrice: -1, Currency: "USD"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPrice(tt.rec); got != tt.want {
				t.Errorf("formatPrice() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchItemsUnpacedByDefault(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"resultCount":0,"results":[]}`))
	}))
	defer server.Close()

	c := NewClient(Options{Endpoint: server.URL, Burst: 4})
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FetchItems(context.Background(), catalog.Query{Term: "a", Scope: catalog.ScopeApps}); err != nil {
				t.Errorf("FetchItems: %v", err)
			}
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("8 unpaced requests took %v", elapsed)
	}
	if hits.Load() != 8 {
		t.Errorf("hits = %d, want 8", hits.Load())
	}
}

func TestFetchItemsOptInPacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultCount":0,"results":[]}`))
	}))
	defer server.Close()

	c := NewClient(Options{Endpoint: server.URL, RequestsPerMinute: 1, Burst: 1})
	q := catalog.Query{Term: "a", Scope: catalog.ScopeApps}
	if _, err := c.FetchItems(context.Background(), q); err != nil {
		t.Fatalf("first request: %v", err)
	}

	// The next token is a minute away, so a short deadline fails fast.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := c.FetchItems(ctx, q); err == nil {
		t.Fatal("second request should be held back by the limiter")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("limiter error took %v", elapsed)
	}
}
