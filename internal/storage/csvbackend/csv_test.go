package csvbackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/simpleflickr/internal/storage"
)

func TestCSVBackend(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "history.csv")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	e1 := &storage.SearchEntry{ID: "csv1", Title: "dog, golden", CreatedAt: now.Add(-2 * time.Hour)}
	e2 := &storage.SearchEntry{ID: "csv2", Title: "cat", CreatedAt: now.Add(-1 * time.Hour)}

	if err := b.Save(ctx, e1); err != nil {
		t.Fatalf("Failed to save entry 1: %v", err)
	}
	if err := b.Save(ctx, e2); err != nil {
		t.Fatalf("Failed to save entry 2: %v", err)
	}

	results, err := b.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !results[0].Equal(e2) {
		t.Errorf("Expected csv2 first, got %+v", results[0])
	}
	if !results[1].Equal(e1) {
		t.Errorf("Expected csv1 with quoted title intact, got %+v", results[1])
	}

	past := now.Add(-90 * time.Minute)
	resultsSince, err := b.List(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to list by Since: %v", err)
	}
	if len(resultsSince) != 1 || resultsSince[0].ID != "csv2" {
		t.Errorf("Expected only csv2 since filter, got %v", resultsSince)
	}

	recent, err := b.MostRecent(ctx)
	if err != nil {
		t.Fatalf("Failed to read most recent: %v", err)
	}
	if recent == nil || recent.ID != "csv2" {
		t.Errorf("Expected csv2 as most recent, got %v", recent)
	}
}

func TestCSVBackend_ClearKeepsHeader(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "history.csv")
	ctx := context.Background()

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	_ = b.Save(ctx, storage.NewSearchEntry("dog"))
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "id,title,created_at" {
		t.Errorf("Expected only the header after clear, got %q", string(data))
	}

	recent, err := b.MostRecent(ctx)
	if err != nil || recent != nil {
		t.Errorf("Expected nil most recent after clear, got %v (err %v)", recent, err)
	}
}

func TestCSVBackend_SkipsMalformedRows(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "history.csv")
	content := "id,title,created_at\nbad-row\nok,dog,2024-01-02T03:04:05Z\nbad-time,cat,yesterday\n"
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	results, err := b.List(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ok" {
		t.Errorf("Expected only the well-formed row, got %v", results)
	}
}
