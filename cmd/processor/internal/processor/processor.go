package processor

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/config"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/storage/postgres"
)

// Processor drains the price topic into Postgres and signals the gateway
// after every committed row. Duplicates (redelivery, ETL restarts) die on the
// store's unique (symbol, timestamp) index rather than on consumer state.
type Processor struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      ObservationStore
	notifier   Notifier
	reader     KafkaReader
	numWorkers int
}

func NewProcessor(cfg *config.Config, logger *zap.Logger, store ObservationStore, notifier Notifier, reader KafkaReader) *Processor {
	return &Processor{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		notifier:   notifier,
		reader:     reader,
		numWorkers: cfg.Processor.NumWorkers,
	}
}

func (p *Processor) Run(ctx context.Context) error {
	workerChans := make([]chan []byte, p.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < p.numWorkers; i++ {
		workerChans[i] = make(chan []byte, 100)
		wg.Add(1)
		go p.worker(i, workerChans[i], &wg)
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		p.logger.Info("Processor Started", zap.Int("workers", p.numWorkers))
		for {
			m, err := p.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				p.logger.Error("Kafka Read Error", zap.Error(err))
				continue
			}

			// Deterministic sharding: same symbol always goes to same worker
			workerID := getWorkerID(m.Key, p.numWorkers)

			select {
			case workerChans[workerID] <- m.Value:
			case <-ctx.Done():
				return
			default:
				p.logger.Warn("Dropping slow packet", zap.String("key", string(m.Key)), zap.Int("worker_id", workerID))
			}
		}
	}()

	<-ctx.Done()
	p.logger.Info("Shutdown signal received, stopping processor...")

	// The reader may still hold a just-read message; closing a channel it is
	// about to send on would panic, so wait for it to exit first.
	<-readerDone

	for _, ch := range workerChans {
		close(ch)
	}
	p.logger.Info("Waiting for workers to drain...")
	wg.Wait()

	return nil
}

func (p *Processor) worker(id int, msgs <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()
	// Background context so in-flight writes finish during shutdown
	ctx := context.Background()

	for payload := range msgs {
		var obs models.PriceObservation
		if err := json.Unmarshal(payload, &obs); err != nil {
			p.logger.Error("JSON Unmarshal Error", zap.Error(err))
			continue
		}

		insertCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.store.InsertObservation(insertCtx, obs)
		cancel()

		if errors.Is(err, postgres.ErrDuplicateObservation) {
			p.logger.Debug("Skipping duplicate observation",
				zap.String("symbol", obs.Symbol), zap.Time("timestamp", obs.Timestamp))
			continue
		}
		if err != nil {
			p.logger.Error("Insert Error", zap.Error(err), zap.String("symbol", obs.Symbol))
			continue
		}

		// Fire the ingestion trigger; the hub coalesces bursts into one pass
		if err := p.notifier.NotifyRefresh(ctx); err != nil {
			p.logger.Error("Refresh Notify Error", zap.Error(err), zap.String("symbol", obs.Symbol))
		} else {
			p.logger.Debug("Processed", zap.String("symbol", obs.Symbol), zap.Int("worker_id", id))
		}
	}
}

func getWorkerID(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32()) % numWorkers
}
