package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/research-analyzer/internal/types"
)

func validReport() types.AnalysisReport {
	return types.AnalysisReport{
		ID:                   uuid.New(),
		Domain:               "Fintech",
		Project:              "Budget Buddy",
		Description:          "budgeting app",
		EffectiveTriggers:    []types.WeightedTrigger{{Trigger: "savings", Weight: 90}},
		Competitors:          []string{"Mint"},
		WordCloudData:        []string{"budget", "budget"},
		KeywordFrequencies:   map[string]int{"budget": 2},
		PainPoints:           []string{"fees"},
		PainPointFrequencies: map[string]int{"fees": 1},
		FullAnalysis:         "narrative",
		Timestamp:            time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
		ResourceLinks:        []string{"https://example.com"},
		Queries: types.QueryPlan{
			types.CategoryGeneral: {"1", "2", "3", "4", "5"},
			types.CategoryReddit:  {"1", "2", "3", "4", "5"},
			types.CategoryQuora:   {"1", "2", "3", "4", "5"},
			types.CategoryBlog:    {"1", "2", "3", "4", "5"},
		},
		SearchResults: types.NewHarvestResult(),
	}
}

func TestReportSchema_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(ReportSchema()), &v))
	assert.Equal(t, "AnalysisReport", v["title"])
}

func TestValidateReport_Valid(t *testing.T) {
	assert.NoError(t, ValidateReport(validReport()))
}

func TestValidateReport_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.AnalysisReport)
	}{
		{"weight above range", func(r *types.AnalysisReport) { r.EffectiveTriggers[0].Weight = 120 }},
		{"empty domain", func(r *types.AnalysisReport) { r.Domain = "" }},
		{"bad timestamp", func(r *types.AnalysisReport) { r.Timestamp = "yesterday" }},
		{"nil competitors", func(r *types.AnalysisReport) { r.Competitors = nil }},
		{"short query list", func(r *types.AnalysisReport) { r.Queries[types.CategoryQuora] = []string{"only"} }},
		{"missing result key", func(r *types.AnalysisReport) { delete(r.SearchResults, "blogs") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := validReport()
			tt.mutate(&report)

			err := ValidateReport(report)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateReportFile(t *testing.T) {
	dir := t.TempDir()

	data, err := json.MarshalIndent(validReport(), "", "  ")
	require.NoError(t, err)
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, data, 0o644))
	assert.NoError(t, ValidateReportFile(good))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"domain": "x"}`), 0o644))
	err = ValidateReportFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	err = ValidateReportFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "domain", Message: "too short"}}}
	assert.Contains(t, err.Error(), "1. domain: too short")
}
