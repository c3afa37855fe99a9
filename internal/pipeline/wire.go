package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/db"
	"github.com/jonathan/research-analyzer/internal/fetch"
	"github.com/jonathan/research-analyzer/internal/harvest"
	"github.com/jonathan/research-analyzer/internal/insight"
	"github.com/jonathan/research-analyzer/internal/llm"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/planner"
	"github.com/jonathan/research-analyzer/internal/search"
	"github.com/jonathan/research-analyzer/internal/storage"
)

var _ fetch.PageCache = (*db.DB)(nil)

// Runtime owns an Analyzer and the connections behind it.
type Runtime struct {
	Analyzer *Analyzer
	// Store is nil unless a database is configured and reachable.
	Store storage.Store

	client   llm.Client
	database *db.DB
}

// Build wires an Analyzer from configuration. The file sink is enabled when
// cfg.Output.Dir is set. cfg.DatabaseURL enables the Postgres sink and the
// page cache. A database that cannot be reached is logged and skipped.
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	client, err := llm.NewClient(ctx, llm.FromSettings(cfg.LLM), cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Log.Infof("language model %s/%s ready", cfg.LLM.Provider, client.GetModel(llm.TierStandard))

	searcher, err := search.NewSearcher(ctx, cfg.Search)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	rt := &Runtime{client: client}

	var sinks storage.MultiSink
	if cfg.Output.Dir != "" {
		sinks = append(sinks, storage.NewFileSink(cfg.Output.Dir))
	}
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Warnf("continuing without database persistence: %v", err)
		} else if err := database.EnsureSchema(ctx); err != nil {
			logger.Log.Warnf("continuing without database persistence: %v", err)
			database.Close()
		} else {
			rt.database = database
			rt.Store = database
			sinks = append(sinks, storage.NewPostgresSink(database))
		}
	}

	opts := Options{Timeouts: TimeoutsFromConfig(cfg.Timeouts)}
	if len(sinks) > 0 {
		opts.Sink = sinks
	}

	var fetcher harvest.Fetcher = fetch.NewClient(fetch.OptionsFromConfig(cfg.Harvest))
	if rt.database != nil && cfg.Harvest.PageCacheTTL > 0 {
		fetcher = fetch.NewCachedFetcher(fetcher, rt.database, cfg.Harvest.PageCacheTTL)
	}

	rt.Analyzer = New(
		planner.New(client),
		harvest.New(searcher, fetcher, harvest.OptionsFromConfig(cfg.Search, cfg.Harvest)),
		insight.NewExtractor(client, insight.WithRefiner(insight.NewRefiner(cfg, client))),
		opts,
	)
	return rt, nil
}

// Close releases the LLM client and the database pool.
func (r *Runtime) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
	if r.database != nil {
		r.database.Close()
	}
}
