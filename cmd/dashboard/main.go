package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/config"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/logger"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/subscriber"
)

// Headless dashboard: keeps a live view of the market via the gateway and
// prints the market-cap-ordered table on an interval.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	sub := subscriber.New(subscriber.Options{
		APIBaseURL: cfg.Dashboard.APIBaseURL,
		ChannelURL: cfg.Dashboard.ChannelURL,
		Logger:     log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial page state comes from REST; pushes keep it current afterwards.
	// A failed bootstrap is not fatal since the first push rebuilds the view.
	bootCtx, bootCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := sub.Bootstrap(bootCtx); err != nil {
		log.Warn("Bootstrap failed, waiting for first push", zap.Error(err))
	}
	bootCancel()

	go sub.Run(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Dashboard.LogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				printView(log, sub)
			}
		}
	}()

	log.Info("Dashboard Started",
		zap.String("api", cfg.Dashboard.APIBaseURL),
		zap.String("channel", cfg.Dashboard.ChannelURL))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received, stopping dashboard...")
	cancel()
}

func printView(log *zap.Logger, sub *subscriber.Subscriber) {
	rows := sub.View().Rows()
	log.Info("Market view", zap.Int("assets", len(rows)))
	for i, row := range rows {
		fields := []zap.Field{
			zap.Int("rank", i+1),
			zap.String("symbol", row.Symbol),
			zap.String("name", row.Name),
			zap.Float64("price", row.CurrentPrice),
		}
		if row.MarketCap != nil {
			fields = append(fields, zap.Float64("market_cap", *row.MarketCap))
		}
		log.Info("Asset", fields...)
	}
}
