package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"rsi-dashboard-go/internal/models"
)

// FileStore persists trades as a JSON array in a single flat file.
// The file is rewritten whole on every append through a temp file and a
// rename, so a reader of the file never sees a partial batch.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	trades []models.Trade
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the store at path, loading existing trades if the file exists.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(path), err)
	}

	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", ErrQueryFailed, path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.trades); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrQueryFailed, path, err)
	}
	return s, nil
}

func (s *FileStore) All(ctx context.Context) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Trade, len(s.trades))
	copy(result, s.trades)
	return result, nil
}

func (s *FileStore) Append(ctx context.Context, trade models.Trade) (models.Trade, error) {
	stored, err := s.AppendBatch(ctx, []models.Trade{trade})
	if err != nil {
		return models.Trade{}, err
	}
	return stored[0], nil
}

func (s *FileStore) AppendBatch(ctx context.Context, trades []models.Trade) ([]models.Trade, error) {
	batch := make([]models.Trade, len(trades))
	copy(batch, trades)
	for i := range batch {
		if err := prepare(&batch[i]); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextID := uint(1)
	if n := len(s.trades); n > 0 {
		nextID = s.trades[n-1].ID + 1
	}
	for i := range batch {
		batch[i].ID = nextID
		nextID++
	}

	next := make([]models.Trade, 0, len(s.trades)+len(batch))
	next = append(next, s.trades...)
	next = append(next, batch...)
	if err := s.write(next); err != nil {
		return nil, err
	}
	s.trades = next
	return batch, nil
}

func (s *FileStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.trades)), nil
}

func (s *FileStore) Close() error {
	return nil
}

// write replaces the file contents atomically.
func (s *FileStore) write(trades []models.Trade) error {
	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrAppendFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrAppendFailed, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrAppendFailed, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrAppendFailed, err)
	}
	return nil
}
