package fetch

import (
	"context"
	"fmt"
)

// FetchImage returns the bytes at url, downloading them at most once per
// cache lifetime. Concurrent callers for the same URL share one download.
// A caller whose ctx is cancelled returns immediately; the shared download
// still completes into the cache for later requests.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if data, ok := c.images.Get(url); ok {
		return data, nil
	}

	// Detached from any single caller so one row's cancellation cannot
	// fail the download for every other row waiting on it. The client
	// timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(url, func() (any, error) {
		data, err := c.get(shared, "image", url, maxImageBody)
		if err != nil {
			return nil, err
		}
		c.images.Add(url, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch: image cancelled: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// CachedImage returns cached bytes for url without touching the network.
func (c *Client) CachedImage(url string) ([]byte, bool) {
	return c.images.Get(url)
}

// HasImage reports whether url is cached, without updating recency.
func (c *Client) HasImage(url string) bool {
	return c.images.Contains(url)
}

// PurgeImages empties the image cache.
func (c *Client) PurgeImages() {
	c.images.Purge()
}
