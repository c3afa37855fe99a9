package fetch

import "strings"

// blogIndicators are lowercase URL fragments that mark blog or article pages.
var blogIndicators = []string{
	"/blog/",
	"medium.com",
	"wordpress.com",
	"blogspot.com",
	"substack.com",
	"/posts/",
	"/article/",
	"/insights/",
}

// IsBlogLike reports whether the URL looks like a blog or article page.
// Matching is a case-insensitive substring test.
func IsBlogLike(urlStr string) bool {
	lower := strings.ToLower(urlStr)
	for _, indicator := range blogIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
