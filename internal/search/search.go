// Package search defines the candidate-link search abstraction and its
// Google Custom Search and SearXNG backends.
package search

import (
	"context"
	"fmt"

	"github.com/jonathan/research-analyzer/internal/types"
)

// Searcher returns ranked candidate links for a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.CandidateLink, error)
}

// Error wraps a backend failure for one query.
type Error struct {
	Provider string
	Query    string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s search failed for %q: %v", e.Provider, e.Query, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
