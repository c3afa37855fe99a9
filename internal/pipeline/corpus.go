package pipeline

import (
	"strings"

	"github.com/jonathan/research-analyzer/internal/types"
	"github.com/jonathan/research-analyzer/internal/validation"
)

// FormatCorpus renders a harvest as the plain-text corpus handed to the
// synthesis ask. Categories appear in canonical order, each under a
// "<Title> Results:" header. Items with instruction-like text are logged,
// not dropped.
func FormatCorpus(result types.HarvestResult) string {
	var sb strings.Builder
	for i, c := range types.Categories {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("\n" + c.Title() + " Results:")
		for _, item := range result[c.ResultKey()] {
			validation.LogInjectionWarning(validation.CheckContent(item.Content), item.URL)

			sb.WriteString("\n- Title: " + item.Title)
			sb.WriteString("\n  URL: " + item.URL)
			sb.WriteString("\n  Content: " + item.Content + "\n")
		}
	}
	return sb.String()
}
