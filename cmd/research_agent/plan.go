package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/research-analyzer/internal/llm"
	"github.com/jonathan/research-analyzer/internal/planner"
	"github.com/jonathan/research-analyzer/internal/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the search query plan for a product idea",
	Long:  "Asks the language model for 5 general, 5 Reddit, 5 Quora and 5 blog queries and prints them as JSON. No searches are run.",
	RunE:  runPlan,
}

var (
	planDomain      string
	planProject     string
	planDescription string
)

func init() {
	planCmd.Flags().StringVarP(&planDomain, "domain", "d", "", "Market domain (required)")
	planCmd.Flags().StringVarP(&planProject, "project", "p", "", "Project name (required)")
	planCmd.Flags().StringVar(&planDescription, "description", "", "Research description (required)")

	for _, name := range []string{"domain", "project", "description"} {
		if err := planCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	req := types.ResearchRequest{Domain: planDomain, Project: planProject, Description: planDescription}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is required for provider %q", cfg.LLM.Provider)
	}

	ctx := cmd.Context()
	client, err := llm.NewClient(ctx, llm.FromSettings(cfg.LLM), cfg.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	planCtx, cancel := context.WithTimeout(ctx, cfg.Timeouts.Plan)
	defer cancel()

	return writeJSON(cmd.OutOrStdout(), planner.New(client).Plan(planCtx, req))
}
