package fetch

import (
	"context"
	"time"

	"github.com/jonathan/research-analyzer/internal/logger"
)

// PageCache stores fetched HTML by URL. *db.DB satisfies it.
type PageCache interface {
	GetFreshPage(ctx context.Context, url string, ttl time.Duration) (string, bool, error)
	SavePage(ctx context.Context, url, html string) error
}

// Fetcher returns the raw HTML for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CachedFetcher serves pages from a PageCache while they are younger than
// its TTL and stores every fresh fetch. Cache failures are logged and never
// fail a fetch.
type CachedFetcher struct {
	inner Fetcher
	cache PageCache
	ttl   time.Duration
}

// NewCachedFetcher wraps inner with cache.
func NewCachedFetcher(inner Fetcher, cache PageCache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: cache, ttl: ttl}
}

// Fetch returns the cached HTML for urlStr, or fetches and caches it.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	html, ok, err := f.cache.GetFreshPage(ctx, urlStr, f.ttl)
	switch {
	case err != nil:
		logger.Log.WithField("url", urlStr).Debugf("page cache lookup failed: %v", err)
	case ok:
		return html, nil
	}

	html, err = f.inner.Fetch(ctx, urlStr)
	if err != nil {
		return "", err
	}

	// Empty bodies are not worth a row.
	if html != "" {
		if err := f.cache.SavePage(ctx, urlStr, html); err != nil {
			logger.Log.WithField("url", urlStr).Debugf("page cache store failed: %v", err)
		}
	}
	return html, nil
}
