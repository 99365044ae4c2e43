package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/internal/storage"
)

// DefaultQuery is used when no search has been recorded yet.
const DefaultQuery = "dog"

// State describes what a session currently shows.
type State int

const (
	Loading State = iota
	Loaded
	Empty
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIndex is returned by Item for an out of range position.
var ErrIndex = errors.New("session: item index out of range")

// Searcher is the part of search.Coordinator a session drives.
type Searcher interface {
	Search(ctx context.Context, query string, paginating, forceRefresh bool) ([]catalog.Image, error)
	AddRecentSearch(ctx context.Context, e *storage.SearchEntry) error
	SearchHistory(ctx context.Context) ([]*storage.SearchEntry, error)
	RecentSearch(ctx context.Context) (*storage.SearchEntry, error)
}

// Session holds the visible result list of one user and turns text input
// into coordinator calls. It is safe for concurrent use; a LoadMore running
// while the query changes discards its results.
type Session struct {
	searcher Searcher
	logger   *slog.Logger

	mu          sync.Mutex
	query       string
	committed   string
	items       []catalog.Image
	history     []*storage.SearchEntry
	state       State
	loadingMore bool
}

// New creates a Session showing DefaultQuery.
func New(searcher Searcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		searcher: searcher,
		logger:   logger,
		query:    DefaultQuery,
		state:    Loading,
	}
}

// Restore makes the most recent search the current query and loads the
// search history. Without a recorded search the query stays DefaultQuery.
func (s *Session) Restore(ctx context.Context) (string, error) {
	recent, err := s.searcher.RecentSearch(ctx)
	if err != nil {
		return s.Query(), fmt.Errorf("session: recent search: %w", err)
	}

	s.mu.Lock()
	if recent != nil && recent.Title != "" {
		s.query = recent.Title
		s.committed = recent.Title
	}
	query := s.query
	s.mu.Unlock()

	if err := s.refreshHistory(ctx); err != nil {
		return query, err
	}
	return query, nil
}

// Submit searches for text unless it is blank or equal to the last
// committed search. The result list is replaced by a fresh first page and
// the search is added to history.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || text == s.committed {
		s.mu.Unlock()
		return nil
	}
	s.query = text
	s.mu.Unlock()

	if err := s.Reload(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	if err := s.searcher.AddRecentSearch(ctx, storage.NewSearchEntry(text)); err != nil {
		return fmt.Errorf("session: record search: %w", err)
	}
	s.mu.Lock()
	s.committed = text
	s.mu.Unlock()

	return s.refreshHistory(ctx)
}

// Reload fetches the first page of the current query again, bypassing the
// cache. A canceled load leaves the previous state in place.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	query, prev := s.query, s.state
	s.state = Loading
	s.mu.Unlock()

	items, err := s.searcher.Search(ctx, query, false, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query != query {
		return nil
	}
	switch {
	case isCanceled(err):
		s.state = prev
		s.logger.Debug("load canceled", "query", query)
		return nil
	case err != nil:
		s.items = nil
		s.state = Empty
		return fmt.Errorf("session: load %q: %w", query, err)
	}

	s.items = items
	s.state = Loaded
	if len(items) == 0 {
		s.state = Empty
	}
	return nil
}

// LoadMore appends the next page of the current query and returns the
// number of new items. It does nothing while another LoadMore is running.
func (s *Session) LoadMore(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.loadingMore || s.state == Loading {
		s.mu.Unlock()
		return 0, nil
	}
	s.loadingMore = true
	query := s.query
	s.mu.Unlock()

	more, err := s.searcher.Search(ctx, query, true, false)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false
	if isCanceled(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session: load more %q: %w", query, err)
	}
	if s.query != query || len(more) == 0 {
		return 0, nil
	}
	s.items = append(s.items, more...)
	s.state = Loaded
	return len(more), nil
}

// Query returns the current query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// State returns the current view state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Items returns a copy of the visible results.
func (s *Session) Items() []catalog.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Image(nil), s.items...)
}

// Item returns the visible result at index i.
func (s *Session) Item(i int) (catalog.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return catalog.Image{}, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(s.items))
	}
	return s.items[i], nil
}

// History returns the earlier searches loaded by Restore or Submit.
func (s *Session) History() []*storage.SearchEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*storage.SearchEntry(nil), s.history...)
}

func (s *Session) refreshHistory(ctx context.Context) error {
	history, err := s.searcher.SearchHistory(ctx)
	if err != nil {
		return fmt.Errorf("session: search history: %w", err)
	}
	s.mu.Lock()
	s.history = history
	s.mu.Unlock()
	return nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
