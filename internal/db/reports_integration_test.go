//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/research-analyzer/internal/types"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return db
}

func TestIntegration_Reports_SaveGetList(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	report := &types.AnalysisReport{
		ID:            uuid.New(),
		Domain:        "Integration",
		Project:       "Widget",
		Description:   "desc",
		Competitors:   []string{"Acme"},
		Timestamp:     time.Now().Format(time.RFC3339),
		ResourceLinks: []string{"https://example.com"},
	}
	defer func() {
		_, _ = db.pool.Exec(ctx, "DELETE FROM research_reports WHERE id = $1", report.ID)
	}()

	if err := db.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	got, err := db.GetReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got == nil || got.Project != "Widget" || len(got.Competitors) != 1 {
		t.Errorf("GetReport = %+v, want the saved report", got)
	}

	missing, err := db.GetReport(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetReport(missing) failed: %v", err)
	}
	if missing != nil {
		t.Errorf("GetReport(missing) = %+v, want nil", missing)
	}

	list, err := db.ListReports(ctx, 5)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	found := false
	for _, s := range list {
		if s.ID == report.ID {
			found = true
		}
	}
	if !found {
		t.Error("saved report missing from ListReports")
	}
}

func TestIntegration_PageCache(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	url := "https://example.com/" + uuid.NewString()
	defer func() {
		_, _ = db.pool.Exec(ctx, "DELETE FROM fetched_pages WHERE url = $1", url)
	}()

	if _, ok, err := db.GetFreshPage(ctx, url, time.Hour); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := db.SavePage(ctx, url, "<p>one</p>"); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	if err := db.SavePage(ctx, url, "<p>two</p>"); err != nil {
		t.Fatalf("SavePage overwrite failed: %v", err)
	}

	html, ok, err := db.GetFreshPage(ctx, url, time.Hour)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if html != "<p>two</p>" {
		t.Errorf("html = %q, want latest save", html)
	}

	if _, ok, _ := db.GetFreshPage(ctx, url, time.Nanosecond); ok {
		t.Error("expected a stale page to miss")
	}
}
