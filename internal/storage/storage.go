// Package storage persists finished analysis reports.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/research-analyzer/internal/db"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/schemas"
	"github.com/jonathan/research-analyzer/internal/types"
)

// Sink is a destination for finished reports.
type Sink interface {
	Save(ctx context.Context, report *types.AnalysisReport) (string, error)
}

// Store reads reports back. *db.DB satisfies it.
type Store interface {
	GetReport(ctx context.Context, id uuid.UUID) (*types.AnalysisReport, error)
	ListReports(ctx context.Context, limit int) ([]db.ReportSummary, error)
}

var _ Store = (*db.DB)(nil)

// FileName returns the report file name for a start time.
func FileName(t time.Time) string {
	return fmt.Sprintf("research_results_%s.json", t.Format("20060102_150405"))
}

// FileSink writes each report as an indented JSON file.
type FileSink struct {
	dir string
	now func() time.Time
}

// NewFileSink creates a sink writing into dir. An empty dir means the
// working directory.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir, now: time.Now}
}

// Save validates the report against the report schema and writes it. It
// returns the written path.
func (s *FileSink) Save(_ context.Context, report *types.AnalysisReport) (string, error) {
	if err := schemas.ValidateReport(report); err != nil {
		return "", fmt.Errorf("report failed schema validation: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := filepath.Join(s.dir, FileName(s.now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// PostgresSink stores reports in the research_reports table.
type PostgresSink struct {
	db *db.DB
}

// NewPostgresSink wraps an open database.
func NewPostgresSink(database *db.DB) *PostgresSink {
	return &PostgresSink{db: database}
}

// Save implements Sink. The returned location is the report ID.
func (s *PostgresSink) Save(ctx context.Context, report *types.AnalysisReport) (string, error) {
	if err := s.db.SaveReport(ctx, report); err != nil {
		return "", err
	}
	return report.ID.String(), nil
}

// MultiSink saves to every sink. Failures are logged and joined, and never
// stop the remaining sinks.
type MultiSink []Sink

// Save implements Sink. The returned location is the first successful one.
func (m MultiSink) Save(ctx context.Context, report *types.AnalysisReport) (string, error) {
	var first string
	var errs []error
	for _, sink := range m {
		loc, err := sink.Save(ctx, report)
		if err != nil {
			logger.Log.Errorf("failed to persist report %s: %v", report.ID, err)
			errs = append(errs, err)
			continue
		}
		logger.Log.Infof("report %s saved to %s", report.ID, loc)
		if first == "" {
			first = loc
		}
	}
	return first, errors.Join(errs...)
}
