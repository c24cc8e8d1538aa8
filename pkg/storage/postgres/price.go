package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm/clause"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// ErrDuplicateObservation is returned when a (symbol, timestamp) pair already exists.
var ErrDuplicateObservation = errors.New("duplicate price observation skipped")

func (p *PostgresClient) InsertObservation(ctx context.Context, obs models.PriceObservation) error {
	record := toRecord(obs)

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "timestamp"},
		},
		DoNothing: true,
	}).Create(&record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrDuplicateObservation
	}

	return nil
}

// LatestSnapshots returns, for every symbol with at least one row, the row with
// the maximum timestamp, ordered by market cap descending (nulls last). Ties on
// the max timestamp resolve to the lowest row id.
func (p *PostgresClient) LatestSnapshots(ctx context.Context) ([]models.PriceObservation, error) {
	var records []PriceRecord

	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (symbol) *
			FROM prices
			ORDER BY symbol, "timestamp" DESC, id ASC
		) latest
		ORDER BY market_cap DESC NULLS LAST, id ASC
	`

	if err := p.DB.WithContext(ctx).Raw(query).Scan(&records).Error; err != nil {
		return nil, err
	}

	return toObservations(records), nil
}

// HistoryRange returns all observations for one symbol inside [from, to),
// ascending by timestamp. A zero from/to leaves that side unbounded.
func (p *PostgresClient) HistoryRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceObservation, error) {
	q := p.DB.WithContext(ctx).Where("symbol = ?", models.NormalizeSymbol(symbol))

	if !from.IsZero() {
		q = q.Where(`"timestamp" >= ?`, from)
	}
	if !to.IsZero() {
		q = q.Where(`"timestamp" < ?`, to)
	}

	var records []PriceRecord
	if err := q.Order(`"timestamp" ASC`).Find(&records).Error; err != nil {
		return nil, err
	}

	return toObservations(records), nil
}

func toRecord(obs models.PriceObservation) PriceRecord {
	return PriceRecord{
		Symbol:       models.NormalizeSymbol(obs.Symbol),
		Name:         obs.Name,
		CurrentPrice: obs.CurrentPrice,
		MarketCap:    obs.MarketCap,
		TotalVolume:  obs.TotalVolume,
		Timestamp:    obs.Timestamp,
	}
}

func toObservations(records []PriceRecord) []models.PriceObservation {
	out := make([]models.PriceObservation, 0, len(records))
	for _, r := range records {
		out = append(out, models.PriceObservation{
			Symbol:       r.Symbol,
			Name:         r.Name,
			CurrentPrice: r.CurrentPrice,
			MarketCap:    r.MarketCap,
			TotalVolume:  r.TotalVolume,
			Timestamp:    r.Timestamp,
		})
	}
	return out
}
