// Package main provides the research_agent CLI: the HTTP API server and
// one-shot analysis commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/logger"
)

var (
	configPath string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "research_agent",
	Short: "Market research assistant",
	Long: "research_agent plans search queries for a product idea, harvests web, Reddit, Quora and blog sources, " +
		"and asks a language model for triggers, competitors, keywords and pain points.",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return logger.Init(logLevel, logFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")
}

// loadConfig reads the config file named by --config over the defaults and
// the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Log.File != "" && logFile == "" {
		if err := logger.Init(logLevel, cfg.Log.File); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
