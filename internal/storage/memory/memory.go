package memory

import (
	"context"
	"sync"

	"github.com/FranksOps/simpleflickr/internal/storage"
)

// ensure memoryBackend implements storage.Backend
var _ storage.Backend = (*memoryBackend)(nil)

type memoryBackend struct {
	mu      sync.RWMutex
	entries []*storage.SearchEntry
}

// New creates an in-process storage.Backend. History is lost on exit.
func New() storage.Backend {
	return &memoryBackend{}
}

func (b *memoryBackend) Save(ctx context.Context, entry *storage.SearchEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *entry

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, &cp)
	return nil
}

func (b *memoryBackend) List(ctx context.Context, filter storage.Filter) ([]*storage.SearchEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return storage.Apply(b.snapshot(), filter), nil
}

func (b *memoryBackend) MostRecent(ctx context.Context) (*storage.SearchEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return storage.Newest(b.snapshot()), nil
}

func (b *memoryBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	return nil
}

func (b *memoryBackend) Close() error {
	return nil
}

// snapshot copies entries so callers can't mutate stored values.
func (b *memoryBackend) snapshot() []*storage.SearchEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*storage.SearchEntry, len(b.entries))
	for i, e := range b.entries {
		cp := *e
		out[i] = &cp
	}
	return out
}
