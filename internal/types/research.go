// Package types provides type definitions for structured data used throughout the research analyzer.
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Category names a search family in a QueryPlan.
type Category string

// Plan categories, in canonical order.
const (
	CategoryGeneral Category = "general"
	CategoryReddit  Category = "reddit"
	CategoryQuora   Category = "quora"
	CategoryBlog    Category = "blog"
)

// Categories lists the plan categories in canonical order.
var Categories = []Category{CategoryGeneral, CategoryReddit, CategoryQuora, CategoryBlog}

// QueriesPerCategory is the exact number of queries a QueryPlan holds per category.
const QueriesPerCategory = 5

// ResultKey returns the HarvestResult key for the category. The blog
// category is stored under "blogs".
func (c Category) ResultKey() string {
	if c == CategoryBlog {
		return "blogs"
	}
	return string(c)
}

// Title returns the display name used in the aggregated corpus headers.
func (c Category) Title() string {
	key := c.ResultKey()
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// ResearchRequest is the input to one analysis.
type ResearchRequest struct {
	Domain      string `json:"domain" validate:"required"`
	Project     string `json:"project" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (r *ResearchRequest) Normalize() {
	r.Domain = strings.TrimSpace(r.Domain)
	r.Project = strings.TrimSpace(r.Project)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate normalizes the request and checks that every field is present.
func (r *ResearchRequest) Validate() error {
	r.Normalize()
	validate := validator.New()
	return validate.Struct(r)
}

// QueryPlan maps each category to exactly QueriesPerCategory search queries.
type QueryPlan map[Category][]string

// Complete reports whether every category holds exactly QueriesPerCategory queries.
func (p QueryPlan) Complete() bool {
	for _, c := range Categories {
		if len(p[c]) != QueriesPerCategory {
			return false
		}
	}
	return true
}

// CandidateLink is one search hit.
type CandidateLink struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// HarvestedItem is the normalized record for one fetched page. Failed fetches
// still produce an item carrying sentinel title and content.
type HarvestedItem struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HarvestResult maps result keys (general, reddit, quora, blogs) to items in
// completion order.
type HarvestResult map[string][]HarvestedItem

// NewHarvestResult returns a result with every category key present and empty.
func NewHarvestResult() HarvestResult {
	result := make(HarvestResult, len(Categories))
	for _, c := range Categories {
		result[c.ResultKey()] = []HarvestedItem{}
	}
	return result
}

// URLs returns every item URL in canonical category order.
func (h HarvestResult) URLs() []string {
	urls := make([]string, 0)
	for _, c := range Categories {
		for _, item := range h[c.ResultKey()] {
			urls = append(urls, item.URL)
		}
	}
	return urls
}

// WeightedTrigger is a purchase/adoption trigger with a 0-100 weight.
type WeightedTrigger struct {
	Trigger string `json:"trigger"`
	Weight  int    `json:"weight"`
}

// AnalysisReport is the final, immutable output of one analysis.
type AnalysisReport struct {
	ID                   uuid.UUID         `json:"id"`
	Domain               string            `json:"domain"`
	Project              string            `json:"project"`
	Description          string            `json:"description"`
	EffectiveTriggers    []WeightedTrigger `json:"effective_triggers"`
	Competitors          []string          `json:"competitors"`
	WordCloudData        []string          `json:"word_cloud_data"`
	KeywordFrequencies   map[string]int    `json:"keyword_frequencies"`
	PainPoints           []string          `json:"pain_points"`
	PainPointFrequencies map[string]int    `json:"pain_point_frequencies"`
	FullAnalysis         string            `json:"full_analysis"`
	Timestamp            string            `json:"timestamp"`
	ResourceLinks        []string          `json:"resource_links"`
	Queries              QueryPlan         `json:"queries"`
	SearchResults        HarvestResult     `json:"search_results"`
}
