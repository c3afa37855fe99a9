package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/extract"
	"github.com/jonathan/research-analyzer/internal/types"
)

// opencensusWorker is started from an init in a transitive dependency of
// the Google searcher and lives for the whole process.
const opencensusWorker = "go.opencensus.io/stats/view.(*worker).start"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction(opencensusWorker))
}

// stubSearcher implements search.Searcher for testing
type stubSearcher struct {
	SearchFunc func(ctx context.Context, query string, limit int) ([]types.CandidateLink, error)

	mu      sync.Mutex
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]types.CandidateLink, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.SearchFunc(ctx, query, limit)
}

func (s *stubSearcher) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// stubFetcher implements Fetcher for testing
type stubFetcher struct {
	FetchFunc func(ctx context.Context, url string) (string, error)
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFunc(ctx, url)
}

const (
	generalURL = "https://example.com/guide"
	redditURL  = "https://www.reddit.com/r/budget/comments/abc/thread"
	quoraURL   = "https://www.quora.com/What-is-budgeting/answer/Jane"
	blogURL    = "https://medium.com/@writer/budgeting-tips"
)

// cannedSearch returns one admitted and one rejected link per category.
func cannedSearch(_ context.Context, query string, _ int) ([]types.CandidateLink, error) {
	switch {
	case strings.HasSuffix(query, " site:reddit.com"):
		return []types.CandidateLink{
			{Title: "thread", URL: redditURL},
			{Title: "subreddit", URL: "https://www.reddit.com/r/budget"},
		}, nil
	case strings.HasSuffix(query, " site:quora.com"):
		return []types.CandidateLink{
			{Title: "answer", URL: quoraURL},
			{Title: "question", URL: "https://www.quora.com/What-is-budgeting"},
		}, nil
	case strings.HasSuffix(query, " blog OR article"):
		return []types.CandidateLink{
			{Title: "post", URL: blogURL},
			{Title: "shop", URL: "https://example.com/products"},
		}, nil
	default:
		return []types.CandidateLink{{Title: "guide", URL: generalURL}}, nil
	}
}

func cannedPage(_ context.Context, url string) (string, error) {
	switch url {
	case redditURL:
		return `<html><body><h1>Budget thread</h1><div data-test-id="post-content">Use envelopes.</div></body></html>`, nil
	case quoraURL:
		return `<html><body><span class="q-box qu-userSelect--text">What is budgeting?</span>
<div class="q-text qu-wordBreak--break-word">Planning money.</div></body></html>`, nil
	default:
		return `<html><head><title>Guide</title></head><body><article><p>Track every expense.</p></article></body></html>`, nil
	}
}

func testPlan() types.QueryPlan {
	plan := make(types.QueryPlan)
	for _, c := range types.Categories {
		for i := 0; i < types.QueriesPerCategory; i++ {
			plan[c] = append(plan[c], fmt.Sprintf("%s query %d", c, i))
		}
	}
	return plan
}

func newTestHarvester(s *stubSearcher, f *stubFetcher) *Harvester {
	return New(s, f, Options{Pacer: Unlimited{}})
}

func TestHarvest_AllCategoriesPopulated(t *testing.T) {
	searcher := &stubSearcher{SearchFunc: cannedSearch}
	h := newTestHarvester(searcher, &stubFetcher{FetchFunc: cannedPage})

	result := h.Harvest(context.Background(), testPlan(), nil)

	require.Len(t, result, 4)
	require.Len(t, result["general"], 1, "duplicate links across queries are fetched once")
	require.Len(t, result["reddit"], 1)
	require.Len(t, result["quora"], 1)
	require.Len(t, result["blogs"], 1)

	assert.Equal(t, types.HarvestedItem{URL: generalURL, Title: "Guide", Content: "Track every expense."}, result["general"][0])
	assert.Equal(t, types.HarvestedItem{URL: redditURL, Title: "Budget thread", Content: "Use envelopes."}, result["reddit"][0])
	assert.Equal(t, "What is budgeting?", result["quora"][0].Title)
	assert.Equal(t, blogURL, result["blogs"][0].URL)

	assert.Equal(t, []string{generalURL, redditURL, quoraURL, blogURL}, result.URLs())
	assert.Len(t, searcher.seen(), 20)
}

func TestHarvest_PoolsDrain(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	slow := &stubFetcher{FetchFunc: func(ctx context.Context, url string) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return cannedPage(ctx, url)
	}}
	h := New(&stubSearcher{SearchFunc: cannedSearch}, slow, Options{Pacer: Unlimited{}, Concurrency: 2})

	result := h.Harvest(context.Background(), testPlan(), nil)
	assert.Len(t, result.URLs(), 4)
}

func TestHarvest_CategoryIsolation(t *testing.T) {
	fetcher := &stubFetcher{FetchFunc: func(ctx context.Context, url string) (string, error) {
		if strings.Contains(url, "quora.com") {
			return "", errors.New("connection reset")
		}
		return cannedPage(ctx, url)
	}}
	h := newTestHarvester(&stubSearcher{SearchFunc: cannedSearch}, fetcher)

	result := h.Harvest(context.Background(), testPlan(), nil)

	require.Len(t, result["quora"], 1)
	assert.Equal(t, extract.QAErrorTitle, result["quora"][0].Title)
	assert.Equal(t, "Error: connection reset", result["quora"][0].Content)
	assert.True(t, extract.IsSentinel(result["quora"][0]))

	for _, key := range []string{"general", "reddit", "blogs"} {
		require.Len(t, result[key], 1, key)
		assert.False(t, extract.IsSentinel(result[key][0]), key)
	}
}

func TestHarvest_SearchFailureYieldsNoLinks(t *testing.T) {
	searcher := &stubSearcher{SearchFunc: func(ctx context.Context, query string, limit int) ([]types.CandidateLink, error) {
		if strings.HasSuffix(query, " site:reddit.com") {
			return nil, errors.New("quota exceeded")
		}
		return cannedSearch(ctx, query, limit)
	}}
	h := newTestHarvester(searcher, &stubFetcher{FetchFunc: cannedPage})

	result := h.Harvest(context.Background(), testPlan(), nil)

	assert.NotNil(t, result["reddit"])
	assert.Empty(t, result["reddit"])
	assert.Len(t, result["general"], 1)
	assert.Len(t, searcher.seen(), 20, "every query is still attempted")
}

func TestHarvest_AppliesSuffixesAndLimit(t *testing.T) {
	var limits sync.Map
	searcher := &stubSearcher{SearchFunc: func(ctx context.Context, query string, limit int) ([]types.CandidateLink, error) {
		limits.Store(limit, true)
		return cannedSearch(ctx, query, limit)
	}}
	h := newTestHarvester(searcher, &stubFetcher{FetchFunc: cannedPage})

	h.Harvest(context.Background(), testPlan(), nil)

	queries := searcher.seen()
	assert.Contains(t, queries, "general query 0")
	assert.Contains(t, queries, "reddit query 0 site:reddit.com")
	assert.Contains(t, queries, "quora query 4 site:quora.com")
	assert.Contains(t, queries, "blog query 2 blog OR article")

	_, ok := limits.Load(DefaultResultsPerQuery)
	assert.True(t, ok)
}

func TestHarvest_ProgressPerCategory(t *testing.T) {
	var mu sync.Mutex
	got := map[types.Category]int{}

	h := newTestHarvester(&stubSearcher{SearchFunc: cannedSearch}, &stubFetcher{FetchFunc: cannedPage})

	h.Harvest(context.Background(), testPlan(), func(c types.Category, items []types.HarvestedItem) {
		mu.Lock()
		got[c] = len(items)
		mu.Unlock()
	})

	assert.Equal(t, map[types.Category]int{
		types.CategoryGeneral: 1,
		types.CategoryReddit:  1,
		types.CategoryQuora:   1,
		types.CategoryBlog:    1,
	}, got)
}

func TestHarvest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &stubSearcher{SearchFunc: cannedSearch}
	result := newTestHarvester(searcher, &stubFetcher{FetchFunc: cannedPage}).Harvest(ctx, testPlan(), nil)

	assert.Empty(t, searcher.seen())
	for _, c := range types.Categories {
		assert.NotNil(t, result[c.ResultKey()])
		assert.Empty(t, result[c.ResultKey()])
	}
}

func TestFetchAll_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	fetcher := &stubFetcher{FetchFunc: func(context.Context, string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "<html><body><p>x</p></body></html>", nil
	}}

	h := New(&stubSearcher{SearchFunc: cannedSearch}, fetcher, Options{Pacer: Unlimited{}, Concurrency: 2})

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d", i)
	}
	items := h.fetchAll(context.Background(), extract.KindGeneric, urls)

	assert.Len(t, items, 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFetchOne_RecoversPanic(t *testing.T) {
	fetcher := &stubFetcher{FetchFunc: func(context.Context, string) (string, error) {
		panic("boom")
	}}
	h := New(&stubSearcher{SearchFunc: cannedSearch}, fetcher, Options{Pacer: Unlimited{}})

	item := h.fetchOne(context.Background(), extract.KindForum, redditURL)

	assert.Equal(t, extract.ForumErrorTitle, item.Title)
	assert.Equal(t, "Error: panic: boom", item.Content)
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		category types.Category
		url      string
		want     bool
	}{
		{types.CategoryGeneral, "https://example.com/products", true},
		{types.CategoryReddit, redditURL, true},
		{types.CategoryReddit, "https://www.reddit.com/r/budget", false},
		{types.CategoryReddit, "https://example.com/comments/1", false},
		{types.CategoryQuora, quoraURL, true},
		{types.CategoryQuora, "https://www.quora.com/What-is-budgeting", false},
		{types.CategoryBlog, "https://medium.com/x", true},
		{types.CategoryBlog, "https://example.com/products", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+" "+tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Admit(tt.category, tt.url))
		})
	}
}

func TestQueryFor(t *testing.T) {
	assert.Equal(t, "crm", QueryFor(types.CategoryGeneral, "crm"))
	assert.Equal(t, "crm site:reddit.com", QueryFor(types.CategoryReddit, "crm"))
	assert.Equal(t, "crm site:quora.com", QueryFor(types.CategoryQuora, "crm"))
	assert.Equal(t, "crm blog OR article", QueryFor(types.CategoryBlog, "crm"))
}

func TestRatePacer(t *testing.T) {
	assert.IsType(t, Unlimited{}, NewRatePacer(0))

	p := NewRatePacer(20 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))
}

func TestUnlimited(t *testing.T) {
	assert.NoError(t, Unlimited{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Unlimited{}.Wait(ctx), context.Canceled)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	opts := OptionsFromConfig(cfg.Search, cfg.Harvest)

	assert.Equal(t, 3, opts.ResultsPerQuery)
	assert.Equal(t, 8, opts.Concurrency)
	assert.IsType(t, &RatePacer{}, opts.Pacer)
}
