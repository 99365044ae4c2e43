package memory

import (
	"context"
	"testing"
	"time"

	"github.com/FranksOps/simpleflickr/internal/storage"
)

func TestMemoryBackend(t *testing.T) {
	b := New()
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	_ = b.Save(ctx, &storage.SearchEntry{ID: "1", Title: "dog", CreatedAt: now.Add(-time.Hour)})
	_ = b.Save(ctx, &storage.SearchEntry{ID: "2", Title: "cat", CreatedAt: now.Add(-time.Minute)})
	_ = b.Save(ctx, &storage.SearchEntry{ID: "3", Title: "dog", CreatedAt: now})

	results, err := b.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].ID != "3" || results[1].ID != "2" {
		t.Fatalf("unexpected listing: %v", results)
	}

	// mutating returned values must not leak back into the store
	results[0].Title = "changed"
	recent, _ := b.MostRecent(ctx)
	if recent == nil || recent.Title != "dog" {
		t.Errorf("expected stored entry to be unchanged, got %v", recent)
	}

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recent, _ = b.MostRecent(ctx)
	if recent != nil {
		t.Errorf("expected nil after clear, got %v", recent)
	}
}

func TestMemoryBackend_CanceledContext(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Save(ctx, storage.NewSearchEntry("dog")); err == nil {
		t.Errorf("expected error on canceled context")
	}
	if _, err := b.List(ctx, storage.Filter{}); err == nil {
		t.Errorf("expected error on canceled context")
	}
}
