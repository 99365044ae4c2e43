package flickr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/FranksOps/simpleflickr/internal/catalog"
)

// ErrMockPageFailure is returned by Mock for pages configured to fail.
var ErrMockPageFailure = errors.New("flickr: mock page failure")

// MockCall records one FetchPage invocation.
type MockCall struct {
	Query   string
	Page    int
	PerPage int
}

// Mock is an offline backend with deterministic results. Every successful
// call bumps a version embedded in the IDs, so refetching a page yields new
// records.
type Mock struct {
	totalPages int

	mu        sync.Mutex
	failPages map[int]struct{}
	version   int
	calls     []MockCall
}

// NewMock returns a Mock exposing totalPages pages (at least 1) and failing
// the listed pages.
func NewMock(totalPages int, failingPages ...int) *Mock {
	m := &Mock{
		totalPages: max(1, totalPages),
		failPages:  make(map[int]struct{}, len(failingPages)),
	}
	for _, p := range failingPages {
		m.failPages[p] = struct{}{}
	}
	return m
}

// SetFailing toggles failure for page.
func (m *Mock) SetFailing(page int, failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if failing {
		m.failPages[page] = struct{}{}
	} else {
		delete(m.failPages, page)
	}
}

// Calls returns the recorded invocations in order.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) FetchPage(ctx context.Context, query string, page, perPage int) (*catalog.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Query: query, Page: page, PerPage: perPage})

	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}
	if _, fail := m.failPages[page]; fail {
		return nil, &TransportError{Err: ErrMockPageFailure}
	}

	m.version++

	start := (page - 1) * perPage
	items := make([]catalog.Image, 0, perPage)
	for idx := range perPage {
		id := fmt.Sprintf("test-%s-p%d-v%d-#%d", query, page, m.version, start+idx)
		items = append(items, catalog.Image{
			ID:        id,
			Title:     id,
			Thumbnail: "https://example.com/thumb/" + url.PathEscape(id),
			Original:  "https://example.com/full/" + url.PathEscape(id),
			Size:      catalog.NewSize(1000, 800),
			Source:    catalog.SourceMock,
		})
	}

	return &catalog.Response{
		Items: items,
		Page: catalog.Page{
			Page:    page,
			PerPage: perPage,
			Total:   perPage * m.totalPages,
			Pages:   m.totalPages,
		},
	}, nil
}
