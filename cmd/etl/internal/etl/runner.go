package etl

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// Runner periodically extracts the current markets from the upstream API,
// stamps every row with one shared observation time, and publishes one
// message per symbol to the price topic.
type Runner struct {
	logger   *zap.Logger
	fetcher  MarketFetcher
	writer   KafkaWriter
	clock    Clock
	interval time.Duration
}

func NewRunner(logger *zap.Logger, fetcher MarketFetcher, writer KafkaWriter, clock Clock, interval time.Duration) *Runner {
	return &Runner{
		logger:   logger,
		fetcher:  fetcher,
		writer:   writer,
		clock:    clock,
		interval: interval,
	}
}

func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("ETL Started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("ETL pass failed", zap.Error(err))
			}
			r.clock.Sleep(r.interval)
		}
	}
}

// RunOnce performs a single extract-transform-publish pass.
func (r *Runner) RunOnce(ctx context.Context) error {
	markets, err := r.fetcher.GetMarkets(ctx)
	if err != nil {
		return err
	}

	// One shared timestamp per pass, matching the append-only snapshot model
	observedAt := r.clock.Now().UTC()

	msgs := make([]kafka.Message, 0, len(markets))
	for _, m := range markets {
		obs := models.PriceObservation{
			Symbol:       models.NormalizeSymbol(m.Symbol),
			Name:         m.Name,
			CurrentPrice: m.CurrentPrice,
			MarketCap:    m.MarketCap,
			TotalVolume:  m.TotalVolume,
			Timestamp:    observedAt,
		}

		payload, err := json.Marshal(obs)
		if err != nil {
			r.logger.Error("JSON Marshal Error", zap.String("symbol", obs.Symbol), zap.Error(err))
			continue
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(obs.Symbol), // Key ensures partition ordering per symbol
			Value: payload,
		})
	}

	if len(msgs) == 0 {
		r.logger.Warn("ETL pass produced no observations")
		return nil
	}

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}

	r.logger.Debug("Published observations", zap.Int("count", len(msgs)),
		zap.Time("observed_at", observedAt))
	return nil
}
