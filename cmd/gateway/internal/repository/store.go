package repository

import (
	"context"
	"time"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// PriceStore is the read side of the durable price table.
type PriceStore interface {
	// LatestSnapshots returns the newest observation per symbol, ordered by
	// market cap descending. Recomputed fresh on every call.
	LatestSnapshots(ctx context.Context) ([]models.PriceObservation, error)

	// HistoryRange returns one symbol's observations inside [from, to),
	// ascending. Zero bounds are unbounded on that side.
	HistoryRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceObservation, error)
}

// RefreshSource delivers ingestion-completed notifications.
type RefreshSource interface {
	Run(ctx context.Context, onRefresh func())
	Close() error
}
