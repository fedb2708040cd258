package models

import "time"

// Price is one raw exchange price sample as written by the collector.
// Rows are immutable once stored; (timestamp, symbol, last) is the dedup key,
// so re-inserting the same observation is a no-op.
type Price struct {
	Timestamp      int64      `gorm:"uniqueIndex:idx_prices_dedup" json:"timestamp"` // epoch millis
	Datetime       time.Time  `gorm:"index" json:"datetime"`
	Symbol         string     `gorm:"uniqueIndex:idx_prices_dedup" json:"symbol"`
	Last           *float64   `gorm:"uniqueIndex:idx_prices_dedup" json:"last"`
	Bid            *float64   `json:"bid"`
	Ask            *float64   `json:"ask"`
	High           *float64   `json:"high"`
	Low            *float64   `json:"low"`
	Futures        bool       `json:"futures"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// TableName keeps the table name aligned with the collector's schema contract.
func (Price) TableName() string {
	return "prices"
}
