package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/research-analyzer/internal/observability"
	"github.com/jonathan/research-analyzer/internal/pipeline"
	"github.com/jonathan/research-analyzer/internal/types"
)

var analyseCmd = &cobra.Command{
	Use:   "analyse",
	Short: "Run one analysis and print the report as JSON",
	Long: "Runs the full analysis for one product idea, prints the report as JSON and writes it to " +
		"research_results_<YYYYMMDD_HHMMSS>.json. On failure prints {\"error\": ...} instead.",
	RunE: runAnalyse,
}

var (
	analyseDomain      string
	analyseProject     string
	analyseDescription string
	analyseOutputDir   string
	analyseVerbose     bool
)

func init() {
	analyseCmd.Flags().StringVarP(&analyseDomain, "domain", "d", "", "Market domain (required)")
	analyseCmd.Flags().StringVarP(&analyseProject, "project", "p", "", "Project name (required)")
	analyseCmd.Flags().StringVar(&analyseDescription, "description", "", "Research description (required)")
	analyseCmd.Flags().StringVarP(&analyseOutputDir, "output-dir", "o", "", "Directory for the report file (default from config, then the working directory)")
	analyseCmd.Flags().BoolVarP(&analyseVerbose, "verbose", "v", false, "Print progress and summaries to stderr")

	for _, name := range []string{"domain", "project", "description"} {
		if err := analyseCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(analyseCmd)
}

func runAnalyse(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	err := analyse(cmd.Context(), out)
	if err != nil {
		writeError(out, err)
	}
	return err
}

func analyse(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyseOutputDir != "" {
		cfg.Output.Dir = analyseOutputDir
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	rt, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	var progress pipeline.ProgressCallback
	var printer *observability.Printer
	if analyseVerbose {
		printer = observability.NewPrinter(os.Stderr)
		progress = printer.Progress
	}

	report, err := rt.Analyzer.Run(ctx, types.ResearchRequest{
		Domain:      analyseDomain,
		Project:     analyseProject,
		Description: analyseDescription,
	}, progress)
	if err != nil {
		return err
	}

	if printer != nil {
		printer.PrintHarvestSummary(report.SearchResults)
		printer.PrintReportSummary(report)
	}
	return writeJSON(out, report)
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeError prints the single error object callers of the CLI receive.
func writeError(out io.Writer, err error) {
	_ = writeJSON(out, map[string]string{"error": err.Error()})
}
