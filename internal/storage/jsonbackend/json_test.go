package jsonbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/simpleflickr/internal/storage"
)

func TestJSONBackend(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "history.jsonl")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	e1 := &storage.SearchEntry{ID: "json1", Title: "dog", CreatedAt: now.Add(-2 * time.Hour)}
	e2 := &storage.SearchEntry{ID: "json2", Title: "cat", CreatedAt: now.Add(-1 * time.Hour)}
	e3 := &storage.SearchEntry{ID: "json3", Title: "dog", CreatedAt: now}

	for _, e := range []*storage.SearchEntry{e1, e2, e3} {
		if err := b.Save(ctx, e); err != nil {
			t.Fatalf("Failed to save %s: %v", e.ID, err)
		}
	}

	// Test no filters, ordering and title dedup
	resultsAll, err := b.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to list all: %v", err)
	}
	if len(resultsAll) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resultsAll))
	}
	if !resultsAll[0].Equal(e3) {
		t.Errorf("Expected json3 first, got %+v", resultsAll[0])
	}
	if resultsAll[1].ID != "json2" {
		t.Errorf("Expected json2 second, got %s", resultsAll[1].ID)
	}

	// Test Since filter
	past := now.Add(-90 * time.Minute)
	resultsSince, err := b.List(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to list by Since: %v", err)
	}
	if len(resultsSince) != 2 {
		t.Fatalf("Expected 2 results for Since filter, got %d", len(resultsSince))
	}

	// Test limit
	resultsLimit, err := b.List(ctx, storage.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to list limit: %v", err)
	}
	if len(resultsLimit) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(resultsLimit))
	}

	// Test offset
	resultsOffset, err := b.List(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to list offset: %v", err)
	}
	if len(resultsOffset) != 1 || resultsOffset[0].ID != "json2" {
		t.Errorf("Expected json2 for offset 1, got %v", resultsOffset)
	}

	recent, err := b.MostRecent(ctx)
	if err != nil {
		t.Fatalf("Failed to read most recent: %v", err)
	}
	if recent == nil || recent.ID != "json3" {
		t.Errorf("Expected json3 as most recent, got %v", recent)
	}
}

func TestJSONBackend_ClearAndReopen(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "history.jsonl")
	ctx := context.Background()

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	_ = b.Save(ctx, storage.NewSearchEntry("dog"))
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	_ = b.Save(ctx, storage.NewSearchEntry("cat"))
	if err := b.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer reopened.Close()

	results, err := reopened.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(results) != 1 || results[0].Title != "cat" {
		t.Errorf("Expected only cat to survive clear, got %v", results)
	}
}
