package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/FranksOps/simpleflickr/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a new NDJSON-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("jsonbackend: open %s: %w", filePath, err)
	}

	return &jsonBackend{
		file: f,
	}, nil
}

func (b *jsonBackend) Save(ctx context.Context, entry *storage.SearchEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("jsonbackend: encode entry: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("jsonbackend: write entry: %w", err)
	}

	return nil
}

func (b *jsonBackend) List(ctx context.Context, filter storage.Filter) ([]*storage.SearchEntry, error) {
	entries, err := b.readAll()
	if err != nil {
		return nil, err
	}
	return storage.Apply(entries, filter), nil
}

func (b *jsonBackend) MostRecent(ctx context.Context) (*storage.SearchEntry, error) {
	entries, err := b.readAll()
	if err != nil {
		return nil, err
	}
	return storage.Newest(entries), nil
}

func (b *jsonBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.file.Truncate(0); err != nil {
		return fmt.Errorf("jsonbackend: truncate: %w", err)
	}
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("jsonbackend: seek: %w", err)
	}
	return nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

// readAll returns every stored entry in insertion order.
func (b *jsonBackend) readAll() ([]*storage.SearchEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("jsonbackend: seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)

	var entries []*storage.SearchEntry
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e storage.SearchEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("jsonbackend: decode entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("jsonbackend: read: %w", err)
	}

	return entries, nil
}
