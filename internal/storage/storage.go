package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownDriver is returned for an unsupported driver name.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Driver names a Backend implementation.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverJSON     Driver = "json"
	DriverCSV      Driver = "csv"
	DriverMemory   Driver = "memory"
)

// Drivers lists every supported driver.
func Drivers() []Driver {
	return []Driver{DriverSQLite, DriverPostgres, DriverJSON, DriverCSV, DriverMemory}
}

// ParseDriver validates a driver name.
func ParseDriver(s string) (Driver, error) {
	d := Driver(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Drivers() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, s)
}

// SearchEntry is one submitted search in the history.
type SearchEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSearchEntry creates an entry for title stamped with the current time.
func NewSearchEntry(title string) *SearchEntry {
	return &SearchEntry{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
}

// Equal reports whether two entries carry the same values.
func (e *SearchEntry) Equal(o *SearchEntry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.ID == o.ID && e.Title == o.Title && e.CreatedAt.Equal(o.CreatedAt)
}

// Filter narrows a history listing. Zero values mean no restriction.
type Filter struct {
	Since  *time.Time
	Limit  int
	Offset int
}

// Backend persists search history.
//
// List returns entries newest first with at most one entry per title (the
// newest). MostRecent returns the newest entry, or nil when the history is
// empty or the newest entry has an empty title.
type Backend interface {
	Save(ctx context.Context, entry *SearchEntry) error
	List(ctx context.Context, filter Filter) ([]*SearchEntry, error)
	MostRecent(ctx context.Context) (*SearchEntry, error)
	Clear(ctx context.Context) error
	Close() error
}

// SortNewestFirst orders entries by CreatedAt descending. Entries with equal
// timestamps keep their relative order reversed, so later saves win.
func SortNewestFirst(entries []*SearchEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Unique keeps the first entry for each title. Input must already be ordered.
func Unique(entries []*SearchEntry) []*SearchEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]*SearchEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Title]; ok {
			continue
		}
		seen[e.Title] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Apply runs the shared listing rules over entries in insertion order:
// Since filter, newest-first ordering, title dedup, then Offset and Limit.
func Apply(entries []*SearchEntry, filter Filter) []*SearchEntry {
	filtered := make([]*SearchEntry, 0, len(entries))
	for _, e := range entries {
		if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
			continue
		}
		filtered = append(filtered, e)
	}

	SortNewestFirst(filtered)
	filtered = Unique(filtered)

	if filter.Offset > 0 {
		if filter.Offset >= len(filtered) {
			return []*SearchEntry{}
		}
		filtered = filtered[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(filtered) {
		filtered = filtered[:filter.Limit]
	}

	return filtered
}

// Newest picks the most recent entry following the MostRecent contract.
// entries must be in insertion order.
func Newest(entries []*SearchEntry) *SearchEntry {
	var newest *SearchEntry
	for _, e := range entries {
		if newest == nil || !e.CreatedAt.Before(newest.CreatedAt) {
			newest = e
		}
	}
	if newest == nil || newest.Title == "" {
		return nil
	}
	return newest
}
