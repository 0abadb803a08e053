package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rsi-dashboard-go/internal/config"
	"rsi-dashboard-go/internal/database"
	"rsi-dashboard-go/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrInvalidTrade is returned by Append and AppendBatch for malformed input.
	ErrInvalidTrade = models.ErrInvalidTrade
	// ErrQueryFailed wraps read failures of the underlying backend.
	ErrQueryFailed = errors.New("trade store query failed")
	// ErrAppendFailed wraps write failures of the underlying backend.
	ErrAppendFailed = errors.New("trade store append failed")
)

// Store is an ordered, append-only collection of trades.
// Implementations assign ids, fill defaulted fields and must make
// AppendBatch all-or-nothing for concurrent readers.
type Store interface {
	// All returns a snapshot of every trade in ascending id order.
	All(ctx context.Context) ([]models.Trade, error)
	// Append stores a single trade and returns it with its assigned id.
	Append(ctx context.Context, trade models.Trade) (models.Trade, error)
	// AppendBatch stores trades atomically, in the given order.
	AppendBatch(ctx context.Context, trades []models.Trade) ([]models.Trade, error)
	// Count returns the number of stored trades.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Open builds the store selected by cfg.Backend.
func Open(cfg config.Store, log *zap.Logger) (Store, error) {
	log = log.Named("store").With(zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case "memory":
		log.Info("Using in-memory trade store")
		return NewMemoryStore(), nil
	case "file":
		log.Info("Using JSON file trade store", zap.String("path", cfg.Path))
		return NewFileStore(cfg.Path)
	case "sqlite", "postgres", "postgresql", "mysql":
		db, err := database.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		log.Info("Database connection successful and schema migrated")
		return NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Backend)
	}
}

// Latest returns up to n of the most recent trades, newest first.
func Latest(ctx context.Context, s Store, n int) ([]models.Trade, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(all) {
		n = len(all)
	}
	if n < 0 {
		n = 0
	}
	out := make([]models.Trade, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// prepare validates and normalizes a trade before it is given an id.
func prepare(trade *models.Trade) error {
	if err := trade.Validate(); err != nil {
		return err
	}
	trade.Normalize(time.Now().UTC())
	return nil
}
