// Package fetch talks to the storefront search API.
//
// Client performs one search request per query and decodes the response
// into catalog.Items. It also downloads artwork, memoizing the bytes in a
// single process-wide LRU keyed by URL so every surface and row shares one
// cache entry per image.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/abelbrown/storesearch/internal/catalog"
)

// DefaultEndpoint is the public storefront search endpoint.
const DefaultEndpoint = "https://itunes.apple.com/search"

const (
	// maxSearchBody caps a search response (30 results is ~100KB).
	maxSearchBody = 10 << 20
	// maxImageBody caps a single artwork download.
	maxImageBody = 20 << 20

	defaultImageCacheEntries = 512
	userAgent                = "storesearch/0.1 (https://github.com/abelbrown/storesearch)"
)

// Options configures a Client. Zero fields take defaults.
type Options struct {
	Endpoint          string
	Lang              string
	Limit             int
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables pacing
	Burst             int
	ImageCacheEntries int
	Logger            *log.Logger
}

// Client fetches search results and artwork.
// Safe for concurrent use.
type Client struct {
	endpoint string
	lang     string
	limit    int
	client   *http.Client
	limiter  *rate.Limiter // nil when pacing is disabled
	images   *lru.Cache[string, []byte]
	inflight singleflight.Group
	logger   *log.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ImageCacheEntries <= 0 {
		opts.ImageCacheEntries = defaultImageCacheEntries
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	// Size is validated above, so New cannot fail.
	images, _ := lru.New[string, []byte](opts.ImageCacheEntries)

	c := &Client{
		endpoint: opts.Endpoint,
		lang:     opts.Lang,
		limit:    opts.Limit,
		client:   &http.Client{Timeout: opts.Timeout},
		images:   images,
		logger:   opts.Logger,
	}
	if opts.RequestsPerMinute > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), burst)
	}
	return c
}

// searchResponse is the envelope returned by the search endpoint.
type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []searchRecord `json:"results"`
}

// searchRecord is one raw result. Field presence varies by media type.
type searchRecord struct {
	WrapperType      string  `json:"wrapperType"`
	Kind             string  `json:"kind"`
	CollectionType   string  `json:"collectionType"`
	TrackID          int64   `json:"trackId"`
	CollectionID     int64   `json:"collectionId"`
	TrackName        string  `json:"trackName"`
	CollectionName   string  `json:"collectionName"`
	ArtistName       string  `json:"artistName"`
	Description      string  `json:"description"`
	LongDescription  string  `json:"longDescription"`
	ShortDescription string  `json:"shortDescription"`
	PrimaryGenreName string  `json:"primaryGenreName"`
	FormattedPrice   string  `json:"formattedPrice"`
	TrackPrice       float64 `json:"trackPrice"`
	CollectionPrice  float64 `json:"collectionPrice"`
	Currency         string  `json:"currency"`
	TrackViewURL     string  `json:"trackViewUrl"`
	CollectionView   string  `json:"collectionViewUrl"`
	ArtworkURL100    string  `json:"artworkUrl100"`
	ArtworkURL60     string  `json:"artworkUrl60"`
}

// SearchURL returns the request URL for q.
func (c *Client) SearchURL(q catalog.Query) string {
	return c.endpoint + "?" + q.Params(c.lang, c.limit).Encode()
}

// FetchItems performs one search request and returns the decoded items in
// response order. Errors are *NetworkError or *DecodeError; a cancelled
// ctx yields an error matching context.Canceled.
func (c *Client) FetchItems(ctx context.Context, q catalog.Query) ([]catalog.Item, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch: search cancelled: %w", ctx.Err())
			}
			return nil, &NetworkError{Op: "search", URL: c.endpoint, Err: err}
		}
	}

	u := c.SearchURL(q)
	body, err := c.get(ctx, "search", u, maxSearchBody)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{URL: u, Err: err}
	}

	items := make([]catalog.Item, 0, len(resp.Results))
	for _, rec := range resp.Results {
		it, ok := convertRecord(rec)
		if !ok {
			continue
		}
		items = append(items, it)
	}

	c.logger.Debug("search decoded", "term", q.Term, "scope", q.Scope, "count", len(items))
	return items, nil
}

// get performs a GET and returns at most limit bytes of the body.
func (c *Client) get(ctx context.Context, op, u string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch: %s cancelled: %w", op, ctx.Err())
		}
		return nil, &NetworkError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Op: op, URL: u, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch: %s cancelled: %w", op, ctx.Err())
		}
		return nil, &NetworkError{Op: op, URL: u, Err: err}
	}
	return body, nil
}

// convertRecord maps a raw record onto a catalog.Item.
// Records with neither a track nor a collection ID are rejected.
func convertRecord(rec searchRecord) (catalog.Item, bool) {
	id := rec.TrackID
	if id == 0 {
		id = rec.CollectionID
	}
	if id == 0 {
		return catalog.Item{}, false
	}

	kind := catalog.Kind(rec.Kind)
	if kind == "" && rec.WrapperType == "collection" && rec.CollectionType == "Album" {
		kind = catalog.KindAlbum
	}

	return catalog.Item{
		ID:          catalog.ItemID(id),
		Kind:        kind,
		Name:        firstNonEmpty(rec.TrackName, rec.CollectionName),
		Artist:      rec.ArtistName,
		Description: firstNonEmpty(rec.Description, rec.LongDescription, rec.ShortDescription),
		Genre:       rec.PrimaryGenreName,
		Price:       formatPrice(rec),
		StoreURL:    firstNonEmpty(rec.TrackViewURL, rec.CollectionView),
		ArtworkURL:  firstNonEmpty(rec.ArtworkURL100, rec.ArtworkURL60),
	}, true
}

func formatPrice(rec searchRecord) string {
	if rec.FormattedPrice != "" {
		return rec.FormattedPrice
	}
	price := rec.TrackPrice
	if price == 0 {
		price = rec.CollectionPrice
	}
	if price <= 0 {
		return ""
	}
	if rec.Currency == "" {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f %s", price, rec.Currency)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
