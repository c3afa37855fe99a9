package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/types"
)

// SearXNGSearcher queries a SearXNG instance through its JSON API.
type SearXNGSearcher struct {
	baseURL string
	client  *http.Client
}

// Ensure SearXNGSearcher implements Searcher
var _ Searcher = (*SearXNGSearcher)(nil)

// NewSearXNGSearcher creates a searcher. A zero timeout defaults to 30s.
func NewSearXNGSearcher(baseURL string, timeout time.Duration) *SearXNGSearcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SearXNGSearcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type searxngResponse struct {
	Query   string          `json:"query"`
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Search implements Searcher. SearXNG has no result-count parameter, so the
// first limit results are kept.
func (s *SearXNGSearcher) Search(ctx context.Context, query string, limit int) ([]types.CandidateLink, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, &Error{Provider: "searxng", Query: query, Cause: fmt.Errorf("invalid base URL: %w", err)}
	}
	u = u.JoinPath("search")

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("categories", "general")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Provider: "searxng", Query: query, Cause: err}
	}
	req.Header.Set("User-Agent", config.DefaultUserAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: "searxng", Query: query, Cause: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &Error{
			Provider: "searxng",
			Query:    query,
			Cause:    fmt.Errorf("status %d: %s", res.StatusCode, string(body)),
		}
	}

	var decoded searxngResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, &Error{Provider: "searxng", Query: query, Cause: fmt.Errorf("decode response failed: %w", err)}
	}

	links := make([]types.CandidateLink, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if limit > 0 && len(links) == limit {
			break
		}
		links = append(links, types.CandidateLink{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return links, nil
}
