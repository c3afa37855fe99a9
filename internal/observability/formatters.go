// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jonathan/research-analyzer/internal/extract"
	"github.com/jonathan/research-analyzer/internal/pipeline"
	"github.com/jonathan/research-analyzer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode. Its methods may be
// called from several goroutines.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// clip shortens s to n runes, ending in "..." when cut.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Progress prints one progress line, and a plan box once planning is done.
// It satisfies pipeline.ProgressCallback.
//
//nolint:errcheck
func (p *Printer) Progress(event pipeline.ProgressEvent) {
	if plan, ok := event.Content.(types.QueryPlan); ok {
		p.PrintQueryPlan(plan)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Category != "" {
		fmt.Fprintf(p.out, "[%s/%s] %s\n", event.Stage, event.Category, event.Message)
		return
	}
	fmt.Fprintf(p.out, "[%s] %s\n", event.Stage, event.Message)
}

// PrintQueryPlan outputs the planned queries per category.
func (p *Printer) PrintQueryPlan(plan types.QueryPlan) {
	if len(plan) == 0 {
		return
	}

	var sb strings.Builder
	for i, c := range types.Categories {
		queries := plan[c]
		sb.WriteString(fmt.Sprintf("%s (%d):\n", c.Title(), len(queries)))
		for _, q := range queries {
			sb.WriteString(fmt.Sprintf("  • %s\n", q))
		}
		if i < len(types.Categories)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("QUERY PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHarvestSummary outputs per-category item counts and a few titles.
func (p *Printer) PrintHarvestSummary(result types.HarvestResult) {
	var sb strings.Builder
	for _, c := range types.Categories {
		items := result[c.ResultKey()]
		failed := 0
		for _, item := range items {
			if extract.IsSentinel(item) {
				failed++
			}
		}
		sb.WriteString(fmt.Sprintf("%s: %d items (%d failed)\n", c.Title(), len(items), failed))

		count := min(len(items), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", items[i].Title))
		}
		if len(items) > count {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-count))
		}
	}

	p.printBox("HARVEST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReportSummary outputs the headline insight fields of a report.
func (p *Printer) PrintReportSummary(report *types.AnalysisReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Project:  %s\n", report.Project))
	sb.WriteString(fmt.Sprintf("Domain:   %s\n", report.Domain))
	sb.WriteString(fmt.Sprintf("Sources:  %d\n", len(report.ResourceLinks)))

	if len(report.EffectiveTriggers) > 0 {
		sb.WriteString("\nEffective Triggers:\n")
		for i, t := range report.EffectiveTriggers {
			if i == maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.EffectiveTriggers)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  • %s (%d)\n", t.Trigger, t.Weight))
		}
	}

	writeList(&sb, "Competitors", report.Competitors)
	writeList(&sb, "Pain Points", report.PainPoints)

	p.printBox("ANALYSIS SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	count := min(len(entries), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", entries[i]))
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(entries)-maxItemsToShow))
	}
}
