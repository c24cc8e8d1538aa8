package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/etl/internal/etl"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/config"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// Ensure the topic exists before the first publish
	creator := etl.NewTopicCreator(log, &etl.RealKafkaDialer{Dialer: kafka.DefaultDialer}, etl.RealClock{})
	creator.Create(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}

	fetcher := etl.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.VsCurrency,
		cfg.CoinGecko.PerPage,
		cfg.CoinGecko.Timeout,
	)

	runner := etl.NewRunner(log, fetcher, writer, etl.RealClock{}, cfg.CoinGecko.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutdown signal received")
	cancel()

	// Flush buffered messages before exit
	if err := writer.Close(); err != nil {
		log.Error("Error closing Kafka writer", zap.Error(err))
	} else {
		log.Info("Kafka writer closed cleanly")
	}
}
