package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/FranksOps/simpleflickr/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"title",
	"created_at",
}

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("csvbackend: open %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvbackend: stat: %w", err)
	}

	b := &csvBackend{file: f}
	if info.Size() == 0 {
		if err := b.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return b, nil
}

func (b *csvBackend) writeHeader() error {
	w := csv.NewWriter(b.file)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("csvbackend: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: write header: %w", err)
	}
	return nil
}

func (b *csvBackend) Save(ctx context.Context, entry *storage.SearchEntry) error {
	record := []string{
		entry.ID,
		entry.Title,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("csvbackend: seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("csvbackend: write entry: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: write entry: %w", err)
	}

	return nil
}

func (b *csvBackend) List(ctx context.Context, filter storage.Filter) ([]*storage.SearchEntry, error) {
	entries, err := b.readAll()
	if err != nil {
		return nil, err
	}
	return storage.Apply(entries, filter), nil
}

func (b *csvBackend) MostRecent(ctx context.Context) (*storage.SearchEntry, error) {
	entries, err := b.readAll()
	if err != nil {
		return nil, err
	}
	return storage.Newest(entries), nil
}

func (b *csvBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.file.Truncate(0); err != nil {
		return fmt.Errorf("csvbackend: truncate: %w", err)
	}
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("csvbackend: seek: %w", err)
	}
	return b.writeHeader()
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

// readAll returns every stored entry in insertion order. Malformed rows are skipped.
func (b *csvBackend) readAll() ([]*storage.SearchEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csvbackend: seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csvbackend: read header: %w", err)
	}

	var entries []*storage.SearchEntry
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvbackend: read: %w", err)
		}

		if len(record) != len(headers) {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339Nano, record[2])
		if err != nil {
			continue
		}

		entries = append(entries, &storage.SearchEntry{
			ID:        record[0],
			Title:     record[1],
			CreatedAt: createdAt.UTC(),
		})
	}

	return entries, nil
}
