package store

import (
	"context"
	"fmt"

	"rsi-dashboard-go/internal/models"

	"gorm.io/gorm"
)

const insertBatchSize = 200

// GormStore keeps trades in a SQL table through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an already migrated database connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) All(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	if err := s.db.WithContext(ctx).Order("id asc").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return trades, nil
}

func (s *GormStore) Append(ctx context.Context, trade models.Trade) (models.Trade, error) {
	trade.ID = 0
	if err := prepare(&trade); err != nil {
		return models.Trade{}, err
	}
	if err := s.db.WithContext(ctx).Create(&trade).Error; err != nil {
		return models.Trade{}, fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	return trade, nil
}

// AppendBatch inserts all trades in one transaction.
func (s *GormStore) AppendBatch(ctx context.Context, trades []models.Trade) ([]models.Trade, error) {
	batch := make([]models.Trade, len(trades))
	copy(batch, trades)
	for i := range batch {
		batch[i].ID = 0
		if err := prepare(&batch[i]); err != nil {
			return nil, err
		}
	}
	if len(batch) == 0 {
		return batch, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&batch, insertBatchSize).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	return batch, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Trade{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return count, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
