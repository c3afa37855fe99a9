// Package insight issues the structured asks against the research corpus and
// parses the replies into report fields.
package insight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/research-analyzer/internal/llm"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/prompts"
	"github.com/jonathan/research-analyzer/internal/types"
	"github.com/jonathan/research-analyzer/internal/validation"
)

// Result holds every insight field of a report.
type Result struct {
	FullAnalysis      string
	EffectiveTriggers []types.WeightedTrigger
	Competitors       []string
	WordCloudData     []string
	PainPoints        []string
}

// Extractor runs the asks. A failed ask leaves its field empty.
type Extractor struct {
	client  llm.Client
	parser  Parser
	refiner Refiner
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithParser replaces the default LabelParser.
func WithParser(p Parser) Option {
	return func(e *Extractor) { e.parser = p }
}

// WithRefiner sets the narrative refinement hook.
func WithRefiner(r Refiner) Option {
	return func(e *Extractor) { e.refiner = r }
}

// NewExtractor creates an extractor with a LabelParser and no refinement.
func NewExtractor(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{client: client, parser: LabelParser{}, refiner: NoopRefiner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the synthesis ask over corpus and the three list asks over the
// request metadata. The asks are independent and run concurrently.
func (e *Extractor) Extract(ctx context.Context, req types.ResearchRequest, corpus string) Result {
	res := Result{
		EffectiveTriggers: []types.WeightedTrigger{},
		Competitors:       []string{},
		WordCloudData:     []string{},
		PainPoints:        []string{},
	}
	meta := map[string]string{
		"Domain":      req.Domain,
		"Project":     req.Project,
		"Description": req.Description,
	}

	var g errgroup.Group
	g.Go(func() error {
		res.FullAnalysis = e.synthesize(ctx, meta, corpus)
		return nil
	})
	g.Go(func() error {
		if reply, ok := e.ask(ctx, prompts.KeyTriggersCompetitors, meta, llm.TierStandard); ok {
			res.EffectiveTriggers = e.parser.Triggers(reply)
			res.Competitors = e.parser.List(reply, LabelCompetitors)
		}
		return nil
	})
	g.Go(func() error {
		if reply, ok := e.ask(ctx, prompts.KeyWordCloud, meta, llm.TierLite); ok {
			res.WordCloudData = e.parser.List(reply, LabelWordCloud)
		}
		return nil
	})
	g.Go(func() error {
		if reply, ok := e.ask(ctx, prompts.KeyPainPoints, meta, llm.TierStandard); ok {
			res.PainPoints = e.parser.List(reply, LabelPainPoints)
		}
		return nil
	})
	_ = g.Wait()

	return res
}

func (e *Extractor) synthesize(ctx context.Context, meta map[string]string, corpus string) string {
	data := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		data[k] = v
	}
	data["Data"] = validation.QuoteExternalContentWithLabel(corpus, "research data")

	analysis, ok := e.ask(ctx, prompts.KeySynthesis, data, llm.TierAdvanced)
	if !ok {
		return ""
	}

	refined, err := e.refiner.Refine(ctx, analysis)
	if err != nil {
		logger.Log.Warnf("refinement failed, keeping original analysis: %v", err)
		return analysis
	}
	return refined
}

func (e *Extractor) ask(ctx context.Context, key string, data map[string]string, tier llm.ModelTier) (string, bool) {
	prompt, err := prompts.Render(key, data)
	if err != nil {
		logger.Log.Errorf("failed to load prompt %s: %v", key, err)
		return "", false
	}

	reply, err := e.client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		logger.Log.Warnf("%s call failed: %v", key, err)
		return "", false
	}
	return reply, true
}
