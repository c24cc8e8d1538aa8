package processor

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// KafkaReader abstracts the input stream
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ObservationStore is the write side of the durable price table.
type ObservationStore interface {
	InsertObservation(ctx context.Context, obs models.PriceObservation) error
}

// Notifier signals downstream that new rows were committed.
type Notifier interface {
	NotifyRefresh(ctx context.Context) error
}
