package search

import (
	"context"
	"fmt"

	"github.com/jonathan/research-analyzer/internal/config"
)

// NewSearcher creates the searcher selected by the configuration.
func NewSearcher(ctx context.Context, cfg config.SearchConfig) (Searcher, error) {
	switch cfg.Provider {
	case config.ProviderGoogle, "":
		g, err := NewGoogleSearcher(ctx, cfg.Google.APIKey, cfg.Google.CSEID)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderSearXNG:
		if cfg.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return NewSearXNGSearcher(cfg.SearXNG.BaseURL, cfg.SearXNG.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Provider)
	}
}
