package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/research-analyzer/internal/types"
)

// maxGoogleResults is the Custom Search API cap on results per request.
const maxGoogleResults = 10

// GoogleSearcher queries a Programmable Search Engine.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a searcher for the given API key and engine ID.
// Extra options are passed to the API client (endpoint overrides in tests).
func NewGoogleSearcher(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("google search requires an API key and engine ID")
	}

	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search implements Searcher.
func (g *GoogleSearcher) Search(ctx context.Context, query string, limit int) ([]types.CandidateLink, error) {
	if limit <= 0 || limit > maxGoogleResults {
		limit = maxGoogleResults
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Provider: "google", Query: query, Cause: err}
	}

	links := make([]types.CandidateLink, 0, len(resp.Items))
	for _, item := range resp.Items {
		links = append(links, types.CandidateLink{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return links, nil
}
