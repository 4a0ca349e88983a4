package query

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-dashboard/internal/common"
)

// Client coalesces concurrent fetches for the same key and keeps successful
// results for a TTL. Failed fetches are never cached.
type Client struct {
	group   singleflight.Group
	cache   *cache
	timeout time.Duration
}

// NewClient creates a Client. ttl <= 0 disables caching; timeout bounds a shared
// fetch independently of the caller that started it (0 = no bound).
func NewClient(ttl, timeout time.Duration) *Client {
	return &Client{
		cache:   newCache(ttl),
		timeout: timeout,
	}
}

// Do returns the cached value for key or runs fetch. At most one fetch per key
// is in flight; concurrent callers for the same key share its result. A caller
// whose ctx ends stops waiting but does not cancel the shared fetch.
func Do[T any](ctx context.Context, c *Client, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := c.cache.get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
		c.cache.delete(key)
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.timeout)
			defer cancel()
		}

		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.cache.set(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			log.Printf("DEBUG: query %s shared with a concurrent caller", key)
		}
		t, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("query %s: unexpected result type %T", key, res.Val)
		}
		return t, nil
	}
}

// Invalidate drops any cached value for key.
func (c *Client) Invalidate(key string) {
	c.cache.delete(key)
}

// Cached reports the number of live cache entries.
func (c *Client) Cached() int {
	return c.cache.len()
}

// CityKey builds the request key for an endpoint queried by city name.
// City names are compared case-insensitively.
func CityKey(endpoint, city string) string {
	return endpoint + "|city:" + common.NormalizeCity(city)
}

// CoordsKey builds the request key for an endpoint queried by coordinates.
func CoordsKey(endpoint string, lat, lon float64) string {
	return endpoint + "|coords:" + strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
}
