//go:build integration

package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/FranksOps/simpleflickr/internal/eventlog"
	"github.com/FranksOps/simpleflickr/internal/flickr"
	"github.com/FranksOps/simpleflickr/internal/search"
	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/FranksOps/simpleflickr/internal/storage/sqlite"
)

// photoServer serves three pages of pageSize photos per query. Page 2
// repeats the last photo of page 1, and fails once when failOnce is set.
type photoServer struct {
	pageSize int
	failOnce atomic.Bool
	requests atomic.Int32
}

func (s *photoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page == 2 && s.failOnce.CompareAndSwap(true, false) {
		http.Error(w, "try later", http.StatusInternalServerError)
		return
	}

	start := (page - 1) * s.pageSize
	if page == 2 {
		start--
	}
	photos := make([]map[string]any, 0, s.pageSize)
	for i := start; i < start+s.pageSize; i++ {
		photos = append(photos, map[string]any{
			"id":       fmt.Sprintf("%s-%d", q.Get("text"), i),
			"owner":    "42@N01",
			"secret":   "abc",
			"server":   "65535",
			"title":    fmt.Sprintf("photo %d", i),
			"o_width":  "1024",
			"o_height": 768,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"stat": "ok",
		"photos": map[string]any{
			"page":    page,
			"pages":   3,
			"perpage": s.pageSize,
			"total":   "60",
			"photo":   photos,
		},
	})
}

func TestCoordinator_FlickrAndSQLite(t *testing.T) {
	const pageSize = 20
	srv := &photoServer{pageSize: pageSize}
	srv.failOnce.Store(true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client, err := flickr.New(flickr.Config{APIKey: "key", BaseURL: ts.URL, RequestsPerSecond: 100})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	history, err := sqlite.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	defer history.Close()

	events := &eventlog.Memory{}
	c, err := search.New(client, history, events, search.Config{PageSize: pageSize})
	if err != nil {
		t.Fatalf("failed to create coordinator: %v", err)
	}
	ctx := context.Background()

	first, err := c.Search(ctx, "dog", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != pageSize || first[0].ID != "dog-0" {
		t.Fatalf("unexpected first page: %d items", len(first))
	}
	if first[0].Size == nil || *first[0].Size.Width != 1024 || *first[0].Size.Height != 768 {
		t.Errorf("unexpected size %+v", first[0].Size)
	}

	var httpErr *flickr.HTTPError
	if _, err := c.Search(ctx, "dog", true, false); !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected HTTP 500, got %v", err)
	}

	second, err := c.Search(ctx, "dog", true, false)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if len(second) != pageSize-1 {
		t.Errorf("expected the repeated photo to be dropped, got %d items", len(second))
	}

	third, _ := c.Search(ctx, "dog", true, false)
	exhausted, _ := c.Search(ctx, "dog", true, false)
	if len(third) != pageSize || len(exhausted) != 0 {
		t.Errorf("expected a full third page and then nothing, got %d and %d", len(third), len(exhausted))
	}

	all, err := c.Search(ctx, "dog", false, false)
	if err != nil || len(all) != 3*pageSize-1 {
		t.Errorf("expected %d cached items, got %d, %v", 3*pageSize-1, len(all), err)
	}
	if n := srv.requests.Load(); n != 4 {
		t.Errorf("expected 4 requests, got %d", n)
	}

	var wg sync.WaitGroup
	for _, q := range []string{"cat", "owl", "fox"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Search(ctx, q, false, false); err != nil {
				t.Errorf("search %s: %v", q, err)
			}
			if err := c.AddRecentSearch(ctx, storage.NewSearchEntry(q)); err != nil {
				t.Errorf("record %s: %v", q, err)
			}
		}()
	}
	wg.Wait()

	if err := c.AddRecentSearch(ctx, storage.NewSearchEntry("dog")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recent, err := c.RecentSearch(ctx)
	if err != nil || recent == nil || recent.Title != "dog" {
		t.Fatalf("expected dog as most recent, got %v, %v", recent, err)
	}
	earlier, err := c.SearchHistory(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(earlier) != 3 {
		t.Errorf("expected 3 earlier searches, got %d", len(earlier))
	}
	for _, e := range earlier {
		if e.Title == "dog" {
			t.Errorf("expected most recent search to be excluded")
		}
	}

	failures := 0
	for _, name := range events.Names() {
		if name == search.EventFetchFail {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("expected exactly one fetch failure event, got %d", failures)
	}
}
