// Package db provides PostgreSQL storage for analysis reports.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/research-analyzer/internal/types"
)

// DefaultListLimit caps ListReports when no limit is given.
const DefaultListLimit = 20

const createReportsTable = `CREATE TABLE IF NOT EXISTS research_reports (
	id          UUID PRIMARY KEY,
	domain      TEXT NOT NULL,
	project     TEXT NOT NULL,
	report      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createPagesTable = `CREATE TABLE IF NOT EXISTS fetched_pages (
	url         TEXT PRIMARY KEY,
	html        TEXT NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// ReportSummary is one row of the report listing.
type ReportSummary struct {
	ID        uuid.UUID `json:"id"`
	Domain    string    `json:"domain"`
	Project   string    `json:"project"`
	CreatedAt time.Time `json:"created_at"`
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the reports and page cache tables when they do not
// exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, createReportsTable); err != nil {
		return fmt.Errorf("failed to create research_reports table: %w", err)
	}
	if _, err := db.pool.Exec(ctx, createPagesTable); err != nil {
		return fmt.Errorf("failed to create fetched_pages table: %w", err)
	}
	return nil
}

// SaveReport stores a report, replacing any earlier row with the same ID.
func (db *DB) SaveReport(ctx context.Context, report *types.AnalysisReport) error {
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO research_reports (id, domain, project, report)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET domain = $2, project = $3, report = $4`,
		report.ID, report.Domain, report.Project, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport loads a report by ID. It returns nil, nil when no row exists.
func (db *DB) GetReport(ctx context.Context, id uuid.UUID) (*types.AnalysisReport, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT report FROM research_reports WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report types.AnalysisReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListReports returns the most recent reports, newest first.
func (db *DB) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, domain, project, created_at
		 FROM research_reports
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	summaries := []ReportSummary{}
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.ID, &s.Domain, &s.Project, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}
	return summaries, nil
}

// GetFreshPage returns the cached HTML for url when it was fetched within
// ttl. The bool is false on a miss.
func (db *DB) GetFreshPage(ctx context.Context, url string, ttl time.Duration) (string, bool, error) {
	var html string
	err := db.pool.QueryRow(ctx,
		`SELECT html FROM fetched_pages
		 WHERE url = $1 AND fetched_at > $2`,
		url, time.Now().Add(-ttl),
	).Scan(&html)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached page: %w", err)
	}
	return html, true, nil
}

// SavePage stores html for url and resets its fetch time.
func (db *DB) SavePage(ctx context.Context, url, html string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO fetched_pages (url, html, fetched_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (url) DO UPDATE SET html = $2, fetched_at = NOW()`,
		url, html,
	)
	if err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}
