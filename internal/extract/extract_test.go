package extract

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/research-analyzer/internal/types"
)

func TestExtract_GenericContentContainer(t *testing.T) {
	html := `
	<html>
		<head><title>  Launch Notes  </title></head>
		<body>
			<nav><p>Navigation</p></nav>
			<header><h1>Site header</h1></header>
			<div class="post-body">
				<h2>Why we built it</h2>
				<p>  Teams wanted faster reports. </p>
				<p></p>
				<script>var x = 1;</script>
			</div>
			<div class="sidebar"><p>Sidebar junk</p></div>
			<footer><p>Footer</p></footer>
		</body>
	</html>`

	item := Extract(KindGeneric, html, "https://example.com/blog/launch")

	assert.Equal(t, "https://example.com/blog/launch", item.URL)
	assert.Equal(t, "Launch Notes", item.Title)
	assert.Equal(t, "Why we built it Teams wanted faster reports.", item.Content)
}

func TestExtract_GenericClassMatchIsCaseInsensitive(t *testing.T) {
	html := `<html><body><article class="Entry-Main"><p>Inside</p></article><p>Outside</p></body></html>`

	item := Extract(KindGeneric, html, "https://example.com")
	assert.Equal(t, "Inside", item.Content)
}

func TestExtract_GenericNestedContainersNotRepeated(t *testing.T) {
	html := `<html><body>
		<div class="content"><div class="post"><p>Once</p></div></div>
	</body></html>`

	item := Extract(KindGeneric, html, "https://example.com")
	assert.Equal(t, "Once", item.Content)
}

func TestExtract_GenericFallsBackToBody(t *testing.T) {
	html := `<html><body><h1>Heading</h1><p>Body paragraph.</p><footer><p>Footer</p></footer></body></html>`

	item := Extract(KindGeneric, html, "https://example.com")
	assert.Equal(t, NoTitle, item.Title)
	assert.Equal(t, "Heading Body paragraph.", item.Content)
}

func TestExtract_GenericTruncation(t *testing.T) {
	long := strings.Repeat("a", 2500)
	item := Extract(KindGeneric, "<html><body><p>"+long+"</p></body></html>", "https://example.com")

	assert.Equal(t, MaxContentChars+3, utf8.RuneCountInString(item.Content))
	assert.True(t, strings.HasSuffix(item.Content, "..."))
	assert.Equal(t, strings.Repeat("a", 2000), strings.TrimSuffix(item.Content, "..."))

	exact := strings.Repeat("b", 2000)
	item = Extract(KindGeneric, "<html><body><p>"+exact+"</p></body></html>", "https://example.com")
	assert.Equal(t, exact, item.Content)
}

func TestExtract_Forum(t *testing.T) {
	html := `<html><body>
		<h1>Best budgeting app?</h1>
		<h1>Second heading</h1>
		<div data-test-id="post-content"> I keep losing receipts. </div>
	</body></html>`

	item := Extract(KindForum, html, "https://www.reddit.com/r/x/comments/1")
	assert.Equal(t, "Best budgeting app?", item.Title)
	assert.Equal(t, "I keep losing receipts.", item.Content)
}

func TestExtract_ForumPlaceholders(t *testing.T) {
	item := Extract(KindForum, "<html><body><p>nothing</p></body></html>", "https://www.reddit.com/r/x/comments/1")
	assert.Equal(t, TitleNotFound, item.Title)
	assert.Equal(t, ContentNotFound, item.Content)
}

func TestExtract_QA(t *testing.T) {
	html := `<html><body>
		<span class="q-box qu-userSelect--text">How do I pick a CRM?</span>
		<div class="q-text qu-wordBreak--break-word"> First </div>
		<div class="q-text qu-wordBreak--break-word">Second</div>
		<div class="q-text qu-wordBreak--break-word">Third</div>
		<div class="q-text qu-wordBreak--break-word">Fourth</div>
	</body></html>`

	item := Extract(KindQA, html, "https://www.quora.com/q/answer/a")
	assert.Equal(t, "How do I pick a CRM?", item.Title)
	assert.Equal(t, "First\n\nSecond\n\nThird", item.Content)
}

func TestExtract_QAPlaceholders(t *testing.T) {
	item := Extract(KindQA, "<html><body></body></html>", "https://www.quora.com/q/answer/a")
	assert.Equal(t, QuestionNotFound, item.Title)
	assert.Equal(t, "", item.Content)
}

func TestFailed(t *testing.T) {
	err := errors.New("connection refused")

	tests := []struct {
		kind  Kind
		title string
	}{
		{KindGeneric, GenericErrorTitle},
		{KindForum, ForumErrorTitle},
		{KindQA, QAErrorTitle},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			item := Failed(tt.kind, "https://x.test", err)
			assert.Equal(t, "https://x.test", item.URL)
			assert.Equal(t, tt.title, item.Title)
			assert.Equal(t, "Error: connection refused", item.Content)
			assert.True(t, IsSentinel(item))
		})
	}
}

func TestIsSentinel_RegularItem(t *testing.T) {
	assert.False(t, IsSentinel(types.HarvestedItem{Title: "Hello", Content: "Error: but a real title"}))
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindGeneric, KindFor(types.CategoryGeneral))
	assert.Equal(t, KindForum, KindFor(types.CategoryReddit))
	assert.Equal(t, KindQA, KindFor(types.CategoryQuora))
	assert.Equal(t, KindGeneric, KindFor(types.CategoryBlog))
}

func TestTruncate_Runes(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé...", Truncate("héllo", 2))
}
