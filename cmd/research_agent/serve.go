package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/research-analyzer/internal/pipeline"
	"github.com/jonathan/research-analyzer/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing POST /analyse, POST /analyse/stream, GET /health and the report routes.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt, err := pipeline.Build(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer rt.Close()

	srv := server.New(server.Config{Port: cfg.Server.Port}, rt.Analyzer, rt.Store)
	return srv.Start()
}
