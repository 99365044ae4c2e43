package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/internal/eventlog"
	"github.com/FranksOps/simpleflickr/internal/storage"
	"golang.org/x/sync/semaphore"
)

// DefaultPageSize is the number of results requested per backend page.
const DefaultPageSize = 20

var (
	// ErrNoBackend is returned by New when no image backend is provided.
	ErrNoBackend = errors.New("search: backend is required")
	// ErrNoHistory is returned by New when no history store is provided.
	ErrNoHistory = errors.New("search: history store is required")
	// ErrNilResponse is returned when a backend reports success without a response.
	ErrNilResponse = errors.New("search: backend returned no response")
	// ErrNilEntry is returned by AddRecentSearch for a nil entry.
	ErrNilEntry = errors.New("search: history entry is nil")
)

// Backend fetches one page of results for a query.
type Backend interface {
	FetchPage(ctx context.Context, query string, page, perPage int) (*catalog.Response, error)
}

// Config tunes a Coordinator.
type Config struct {
	PageSize int
	Logger   *slog.Logger
}

// Snapshot is a copy of the cached state for one query.
type Snapshot struct {
	Items    []catalog.Image
	NextPage int
	HasNext  bool
}

type entry struct {
	items    []catalog.Image
	ids      map[string]struct{}
	nextPage int
	hasNext  bool
}

// Coordinator caches search results per query string and drives pagination
// against a Backend. It is also the access point for search history.
//
// Calls for the same query are serialized in arrival order, so concurrent
// "load more" requests fetch consecutive pages. Calls for different queries
// run concurrently.
type Coordinator struct {
	backend  Backend
	history  storage.Backend
	events   eventlog.Recorder
	pageSize int
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]*entry
	locks map[string]*semaphore.Weighted // one per query, kept as long as its cache entry
}

// New creates a Coordinator. When events is nil, events are written to the
// configured logger.
func New(backend Backend, history storage.Backend, events eventlog.Recorder, cfg Config) (*Coordinator, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	if history == nil {
		return nil, ErrNoHistory
	}
	if cfg.PageSize < 0 {
		return nil, fmt.Errorf("search: invalid page size %d", cfg.PageSize)
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if events == nil {
		events = eventlog.NewManager(cfg.Logger, eventlog.NewSlogSink(cfg.Logger))
	}

	return &Coordinator{
		backend:  backend,
		history:  history,
		events:   events,
		pageSize: cfg.PageSize,
		logger:   cfg.Logger,
		cache:    make(map[string]*entry),
		locks:    make(map[string]*semaphore.Weighted),
	}, nil
}

// PageSize returns the page size requested from the backend.
func (c *Coordinator) PageSize() int {
	return c.pageSize
}

// Search returns results for query.
//
// A plain search for a cached query returns every cached item without a
// backend call. paginating fetches the next page and returns only the new
// items; an empty slice means the query is exhausted. forceRefresh starts
// over from page 1 and replaces the cached entry once the fetch succeeds.
// Backend errors are returned unchanged and leave the cache as it was.
func (c *Coordinator) Search(ctx context.Context, query string, paginating, forceRefresh bool) ([]catalog.Image, error) {
	lock := c.lockFor(query)
	if err := lock.Acquire(ctx, 1); err != nil {
		c.logger.Debug("search abandoned while queued", "query", query, "err", err)
		return nil, err
	}
	defer lock.Release(1)

	c.mu.Lock()
	current := c.cache[query]
	if !paginating && !forceRefresh && current != nil {
		items := cloneImages(current.items)
		c.mu.Unlock()
		c.events.Record(CacheHitEvent{Query: query, Count: len(items)})
		return items, nil
	}
	if forceRefresh {
		current = nil
	}
	page := 1
	if current != nil {
		if !current.hasNext {
			next := current.nextPage
			c.mu.Unlock()
			c.events.Record(ExhaustedEvent{Query: query, NextPage: next})
			return []catalog.Image{}, nil
		}
		page = current.nextPage
	}
	c.mu.Unlock()

	c.events.Record(StartEvent{Query: query, Page: page})

	resp, err := c.backend.FetchPage(ctx, query, page, c.pageSize)
	if err == nil && resp == nil {
		err = ErrNilResponse
	}
	if err != nil {
		c.events.Record(FailEvent{Query: query, Page: page, Err: err})
		return nil, err
	}

	c.mu.Lock()
	target := current
	if target == nil {
		target = &entry{ids: make(map[string]struct{}), nextPage: page}
	}
	added := merge(target, resp.Items)
	target.hasNext = resp.Page.HasNext()
	if target.hasNext {
		target.nextPage = page + 1
	}
	c.cache[query] = target
	c.mu.Unlock()

	c.events.Record(SuccessEvent{
		Query:   query,
		Page:    page,
		Added:   len(added),
		Dropped: len(resp.Items) - len(added),
	})

	return added, nil
}

// merge appends items whose IDs are not yet in e and returns them. Repeats
// within items keep only the first occurrence.
func merge(e *entry, items []catalog.Image) []catalog.Image {
	added := make([]catalog.Image, 0, len(items))
	for _, item := range items {
		if _, dup := e.ids[item.ID]; dup {
			continue
		}
		e.ids[item.ID] = struct{}{}
		added = append(added, item)
	}
	e.items = append(e.items, added...)
	return cloneImages(added)
}

func (c *Coordinator) lockFor(query string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[query]
	if !ok {
		l = semaphore.NewWeighted(1)
		c.locks[query] = l
	}
	return l
}

// Snapshot returns a copy of the cached state for query.
func (c *Coordinator) Snapshot(query string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[query]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		Items:    cloneImages(e.items),
		NextPage: e.nextPage,
		HasNext:  e.hasNext,
	}, true
}

// AddRecentSearch records a search in history.
func (c *Coordinator) AddRecentSearch(ctx context.Context, e *storage.SearchEntry) error {
	if e == nil {
		return ErrNilEntry
	}
	if err := c.history.Save(ctx, e); err != nil {
		c.historyFailed("save", err)
		return err
	}
	return nil
}

// SearchHistory lists past searches newest first, without the most recent one.
func (c *Coordinator) SearchHistory(ctx context.Context) ([]*storage.SearchEntry, error) {
	entries, err := c.history.List(ctx, storage.Filter{})
	if err != nil {
		c.historyFailed("list", err)
		return nil, err
	}
	recent, err := c.history.MostRecent(ctx)
	if err != nil {
		c.historyFailed("most_recent", err)
		return nil, err
	}
	if recent == nil {
		return entries, nil
	}
	past := make([]*storage.SearchEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Equal(recent) {
			past = append(past, e)
		}
	}
	return past, nil
}

// RecentSearch returns the newest search, or nil if there is none.
func (c *Coordinator) RecentSearch(ctx context.Context) (*storage.SearchEntry, error) {
	recent, err := c.history.MostRecent(ctx)
	if err != nil {
		c.historyFailed("most_recent", err)
		return nil, err
	}
	return recent, nil
}

// ClearHistory deletes every stored search.
func (c *Coordinator) ClearHistory(ctx context.Context) error {
	if err := c.history.Clear(ctx); err != nil {
		c.historyFailed("clear", err)
		return err
	}
	return nil
}

func (c *Coordinator) historyFailed(op string, err error) {
	c.events.Record(HistoryFailEvent{Op: op, Err: err})
}

func cloneImages(items []catalog.Image) []catalog.Image {
	out := make([]catalog.Image, len(items))
	copy(out, items)
	return out
}
