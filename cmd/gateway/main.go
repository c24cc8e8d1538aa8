package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/api"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/gateway"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/hub"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/repository"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/config"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/logger"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/storage/postgres"
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

	// Refusing to serve against a broken store beats serving stale garbage.
	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.App.Env, true)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer store.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	notifier := repository.NewRedisNotifier(rdb, cfg.Redis.Channel)
	defer notifier.Close()

	wsHub := hub.NewHub(store, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wsHub.Run(ctx)
	go notifier.Run(ctx, wsHub.Trigger)

	mux := http.NewServeMux()

	handler := api.NewHandler(store, wsHub, log)
	handler.Register(mux)

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}

		session := gateway.NewSession(conn, wsHub, log)
		session.Start()
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		log.Info("Gateway Started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	srv.Shutdown(context.Background())
	log.Info("Shutdown Complete")
}
