// Package harvest runs discovery searches and bounded fetch pools for every
// query category and merges the results into a fixed-shape HarvestResult.
package harvest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/extract"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/search"
	"github.com/jonathan/research-analyzer/internal/types"
)

// Defaults for Options.
const (
	DefaultResultsPerQuery = 3
	DefaultConcurrency     = 8
)

// Fetcher returns the raw HTML for one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ProgressFunc is called once per category when its pool has drained. It may
// be called from several goroutines at once.
type ProgressFunc func(category types.Category, items []types.HarvestedItem)

// Options tunes a Harvester.
type Options struct {
	ResultsPerQuery int
	Concurrency     int
	Pacer           Pacer
}

// OptionsFromConfig builds options from the search and harvest settings.
func OptionsFromConfig(s config.SearchConfig, h config.HarvestConfig) Options {
	return Options{
		ResultsPerQuery: s.ResultsPerQuery,
		Concurrency:     h.Concurrency,
		Pacer:           NewRatePacer(h.SearchInterval),
	}
}

// Harvester gathers content for a query plan.
type Harvester struct {
	searcher search.Searcher
	fetcher  Fetcher
	opts     Options
}

// New creates a harvester. Zero option values fall back to the defaults.
func New(searcher search.Searcher, fetcher Fetcher, opts Options) *Harvester {
	if opts.ResultsPerQuery <= 0 {
		opts.ResultsPerQuery = DefaultResultsPerQuery
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Pacer == nil {
		opts.Pacer = NewRatePacer(DefaultSearchInterval)
	}
	return &Harvester{searcher: searcher, fetcher: fetcher, opts: opts}
}

// Harvest runs every category concurrently and blocks until all of them
// finish. Failures stay inside their category: a search error drops that
// query's links and a fetch error becomes a sentinel item. progress may be nil.
func (h *Harvester) Harvest(ctx context.Context, plan types.QueryPlan, progress ProgressFunc) types.HarvestResult {
	collected := make([][]types.HarvestedItem, len(types.Categories))

	var g errgroup.Group
	for i, c := range types.Categories {
		g.Go(func() error {
			collected[i] = h.harvestCategory(ctx, c, plan[c])
			if progress != nil {
				progress(c, collected[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	result := types.NewHarvestResult()
	for i, c := range types.Categories {
		result[c.ResultKey()] = collected[i]
	}
	return result
}

func (h *Harvester) harvestCategory(ctx context.Context, c types.Category, queries []string) []types.HarvestedItem {
	urls := h.discover(ctx, c, queries)
	items := h.fetchAll(ctx, extract.KindFor(c), urls)

	failed := 0
	for _, item := range items {
		if extract.IsSentinel(item) {
			failed++
		}
	}
	logger.Log.WithFields(logrus.Fields{
		"category":   string(c),
		"discovered": len(urls),
		"failed":     failed,
	}).Info("category harvested")
	return items
}

// discover runs the category's searches one after another, each behind the
// pacer, and returns the admitted URLs without duplicates.
func (h *Harvester) discover(ctx context.Context, c types.Category, queries []string) []string {
	seen := make(map[string]bool)
	urls := make([]string, 0, len(queries)*h.opts.ResultsPerQuery)

	for _, query := range queries {
		if err := h.opts.Pacer.Wait(ctx); err != nil {
			logger.Log.Warnf("discovery for %s stopped: %v", c, err)
			break
		}

		q := QueryFor(c, query)
		links, err := h.searcher.Search(ctx, q, h.opts.ResultsPerQuery)
		if err != nil {
			logger.Log.Warnf("search failed for %q: %v", q, err)
			continue
		}

		for _, link := range links {
			if !Admit(c, link.URL) || seen[link.URL] {
				continue
			}
			seen[link.URL] = true
			urls = append(urls, link.URL)
		}
	}
	return urls
}

// fetchAll fetches and extracts every URL on a pool bounded by
// Options.Concurrency. Items come back in completion order.
func (h *Harvester) fetchAll(ctx context.Context, kind extract.Kind, urls []string) []types.HarvestedItem {
	done := make(chan types.HarvestedItem, len(urls))

	var g errgroup.Group
	g.SetLimit(h.opts.Concurrency)
	for _, url := range urls {
		g.Go(func() error {
			done <- h.fetchOne(ctx, kind, url)
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	items := make([]types.HarvestedItem, 0, len(urls))
	for item := range done {
		items = append(items, item)
	}
	return items
}

func (h *Harvester) fetchOne(ctx context.Context, kind extract.Kind, url string) (item types.HarvestedItem) {
	defer func() {
		if r := recover(); r != nil {
			item = extract.Failed(kind, url, fmt.Errorf("panic: %v", r))
		}
	}()

	html, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return extract.Failed(kind, url, err)
	}
	return extract.Extract(kind, html, url)
}
