package store

import (
	"context"
	"sync"

	"rsi-dashboard-go/internal/models"
)

// MemoryStore keeps trades in a slice for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	trades []models.Trade
	nextID uint
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// All returns a copy of the stored trades so callers never observe later appends.
func (s *MemoryStore) All(ctx context.Context) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Trade, len(s.trades))
	copy(result, s.trades)
	return result, nil
}

func (s *MemoryStore) Append(ctx context.Context, trade models.Trade) (models.Trade, error) {
	stored, err := s.AppendBatch(ctx, []models.Trade{trade})
	if err != nil {
		return models.Trade{}, err
	}
	return stored[0], nil
}

// AppendBatch validates the whole batch before taking the write lock,
// so either every trade becomes visible or none does.
func (s *MemoryStore) AppendBatch(ctx context.Context, trades []models.Trade) ([]models.Trade, error) {
	batch := make([]models.Trade, len(trades))
	copy(batch, trades)
	for i := range batch {
		if err := prepare(&batch[i]); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range batch {
		batch[i].ID = s.nextID
		s.nextID++
	}
	s.trades = append(s.trades, batch...)
	return batch, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.trades)), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
