package store

import (
	"fmt"

	"okx-carry-bot-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reader is the read boundary the strategy pipeline depends on. The returned
// slice is fully materialized and may be unordered; the pipeline sorts by
// time itself.
type Reader interface {
	GetPriceHistory() ([]models.Price, error)
}

// Store is the gorm-backed price store used by both the collector and the
// backtest pipeline.
type Store struct {
	db *gorm.DB
}

var _ Reader = (*Store)(nil)

// NewStore creates a Store on top of an open database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetPriceHistory fetches all stored price observations.
func (s *Store) GetPriceHistory() ([]models.Price, error) {
	var prices []models.Price
	if err := s.db.Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	return prices, nil
}

// SavePrices inserts the given observations, silently skipping rows that
// collide on the (timestamp, symbol, last) dedup key.
func (s *Store) SavePrices(prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&prices).Error
	if err != nil {
		return fmt.Errorf("failed to save prices: %w", err)
	}
	return nil
}
