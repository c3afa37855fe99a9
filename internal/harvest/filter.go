package harvest

import (
	"strings"

	"github.com/jonathan/research-analyzer/internal/fetch"
	"github.com/jonathan/research-analyzer/internal/types"
)

// QueryFor appends the category's site restriction to a planned query.
func QueryFor(c types.Category, query string) string {
	switch c {
	case types.CategoryReddit:
		return query + " site:reddit.com"
	case types.CategoryQuora:
		return query + " site:quora.com"
	case types.CategoryBlog:
		return query + " blog OR article"
	default:
		return query
	}
}

// Admit reports whether a discovered URL belongs in the category.
func Admit(c types.Category, url string) bool {
	switch c {
	case types.CategoryReddit:
		return strings.Contains(url, "reddit.com") && strings.Contains(url, "/comments/")
	case types.CategoryQuora:
		return strings.Contains(url, "quora.com") && strings.Contains(url, "/answer/")
	case types.CategoryBlog:
		return fetch.IsBlogLike(url)
	default:
		return url != ""
	}
}
