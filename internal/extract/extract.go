// Package extract turns raw page HTML into normalized HarvestedItem records.
// Extraction never fails outward: problems become sentinel records.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jonathan/research-analyzer/internal/types"
)

// Kind is the page family an extractor understands.
type Kind string

const (
	// KindGeneric is any web page or blog article.
	KindGeneric Kind = "generic"
	// KindForum is a Reddit-style discussion thread.
	KindForum Kind = "forum"
	// KindQA is a Quora-style question page.
	KindQA Kind = "qa"
)

// KindFor returns the extractor kind used for a plan category.
func KindFor(c types.Category) Kind {
	switch c {
	case types.CategoryReddit:
		return KindForum
	case types.CategoryQuora:
		return KindQA
	default:
		return KindGeneric
	}
}

// MaxContentChars bounds generic page content; longer text is cut and
// suffixed with "...".
const MaxContentChars = 2000

// Sentinel titles and placeholders.
const (
	GenericErrorTitle = "Error scraping content"
	ForumErrorTitle   = "Error fetching post"
	QAErrorTitle      = "Error fetching Quora post"

	NoTitle          = "No title found"
	TitleNotFound    = "Title not found"
	ContentNotFound  = "Content not found"
	QuestionNotFound = "Question not found"
)

var contentClassPattern = regexp.MustCompile(`(?i)(content|post|article|blog|entry)`)

// Extract parses html according to kind. It always returns an item.
func Extract(kind Kind, html, pageURL string) types.HarvestedItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Failed(kind, pageURL, fmt.Errorf("failed to parse HTML: %w", err))
	}

	switch kind {
	case KindForum:
		return forum(doc, pageURL)
	case KindQA:
		return qa(doc, pageURL)
	default:
		return generic(doc, html, pageURL)
	}
}

// Failed builds the sentinel item for a page that could not be fetched or parsed.
func Failed(kind Kind, pageURL string, err error) types.HarvestedItem {
	return types.HarvestedItem{
		URL:     pageURL,
		Title:   errorTitle(kind),
		Content: "Error: " + err.Error(),
	}
}

// IsSentinel reports whether the item was produced by Failed.
func IsSentinel(item types.HarvestedItem) bool {
	switch item.Title {
	case GenericErrorTitle, ForumErrorTitle, QAErrorTitle:
		return strings.HasPrefix(item.Content, "Error: ")
	}
	return false
}

func errorTitle(kind Kind) string {
	switch kind {
	case KindForum:
		return ForumErrorTitle
	case KindQA:
		return QAErrorTitle
	default:
		return GenericErrorTitle
	}
}

func generic(doc *goquery.Document, html, pageURL string) types.HarvestedItem {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = NoTitle
	}

	doc.Find("script, style, nav, header, footer").Remove()

	containers := doc.Find("article, main, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		return ok && contentClassPattern.MatchString(class)
	})
	// nested matches would repeat their text
	containers = containers.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("article, main, div").FilterFunction(func(_ int, p *goquery.Selection) bool {
			class, ok := p.Attr("class")
			return ok && contentClassPattern.MatchString(class)
		}).Length() == 0
	})
	if containers.Length() == 0 {
		containers = doc.Find("body")
	}

	var parts []string
	containers.Each(func(_ int, c *goquery.Selection) {
		c.Find("p, h1, h2, h3, h4, h5, h6").Each(func(_ int, el *goquery.Selection) {
			if text := strings.TrimSpace(el.Text()); text != "" {
				parts = append(parts, text)
			}
		})
	})

	content := strings.Join(parts, " ")
	if content == "" {
		content = readableText(html, pageURL)
	}

	return types.HarvestedItem{
		URL:     pageURL,
		Title:   title,
		Content: Truncate(content, MaxContentChars),
	}
}

// readableText runs go-readability over pages whose markup has no paragraph
// or heading text.
func readableText(html, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed == nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(article.TextContent), " ")
}

func forum(doc *goquery.Document, pageURL string) types.HarvestedItem {
	title := TitleNotFound
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		title = strings.TrimSpace(h1.Text())
	}

	content := ContentNotFound
	if body := doc.Find(`div[data-test-id="post-content"]`).First(); body.Length() > 0 {
		content = strings.TrimSpace(body.Text())
	}

	return types.HarvestedItem{URL: pageURL, Title: title, Content: content}
}

func qa(doc *goquery.Document, pageURL string) types.HarvestedItem {
	title := QuestionNotFound
	if q := doc.Find("span.q-box.qu-userSelect--text").First(); q.Length() > 0 {
		title = strings.TrimSpace(q.Text())
	}

	var answers []string
	doc.Find("div.q-text.qu-wordBreak--break-word").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		answers = append(answers, strings.TrimSpace(s.Text()))
		return len(answers) < 3
	})

	return types.HarvestedItem{URL: pageURL, Title: title, Content: strings.Join(answers, "\n\n")}
}

// Truncate cuts s to limit characters and appends "..." when it was longer.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
