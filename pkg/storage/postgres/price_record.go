package postgres

import "time"

// PriceRecord represents one persisted price observation. Rows are immutable
// once written; (symbol, timestamp) is unique.
type PriceRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol    string    `gorm:"type:text;not null;index:idx_price_symbol;index:idx_symbol_timestamp,unique"`
	Timestamp time.Time `gorm:"not null;index:idx_symbol_timestamp,unique;index:idx_price_timestamp"`

	Name string `gorm:"type:text;not null"`

	CurrentPrice float64  `gorm:"type:numeric;not null"`
	MarketCap    *float64 `gorm:"type:numeric"`
	TotalVolume  *float64 `gorm:"type:numeric"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (PriceRecord) TableName() string {
	return "prices"
}
