package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/research-analyzer/internal/insight"
	"github.com/jonathan/research-analyzer/internal/types"
)

// Assemble merges the phase outputs into a report. It cannot fail.
func Assemble(id uuid.UUID, req types.ResearchRequest, plan types.QueryPlan, harvested types.HarvestResult, found insight.Result, at time.Time) *types.AnalysisReport {
	links := make([]string, 0)
	for _, u := range harvested.URLs() {
		if u != "" {
			links = append(links, u)
		}
	}

	return &types.AnalysisReport{
		ID:                   id,
		Domain:               req.Domain,
		Project:              req.Project,
		Description:          req.Description,
		EffectiveTriggers:    nonNil(found.EffectiveTriggers),
		Competitors:          nonNil(found.Competitors),
		WordCloudData:        nonNil(found.WordCloudData),
		KeywordFrequencies:   insight.Frequencies(found.WordCloudData),
		PainPoints:           nonNil(found.PainPoints),
		PainPointFrequencies: insight.Frequencies(found.PainPoints),
		FullAnalysis:         found.FullAnalysis,
		Timestamp:            at.Format(time.RFC3339),
		ResourceLinks:        links,
		Queries:              plan,
		SearchResults:        harvested,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
