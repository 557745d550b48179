package nominatim

import (
	"context"
	"strings"
	"time"

	"github.com/couchcryptid/weather-lookup/internal/cache"
	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// CachedSearcher wraps a Searcher with an in-memory LRU cache keyed by the
// normalized query.
type CachedSearcher struct {
	inner domain.Searcher
	cache *cache.LRU[string, []domain.LocationSuggestion]
}

// NewCachedSearcher creates a cache decorator around a searcher.
func NewCachedSearcher(inner domain.Searcher, maxEntries int, ttl time.Duration, opts ...cache.Option) *CachedSearcher {
	return &CachedSearcher{
		inner: inner,
		cache: cache.New[string, []domain.LocationSuggestion](maxEntries, ttl, opts...),
	}
}

func (c *CachedSearcher) Search(ctx context.Context, query string) ([]domain.LocationSuggestion, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if result, ok := c.cache.Get(key); ok {
		return result, nil
	}
	result, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so a place that was just added upstream
	// shows up on the next search.
	if len(result) > 0 {
		c.cache.Put(key, result)
	}
	return result, nil
}
