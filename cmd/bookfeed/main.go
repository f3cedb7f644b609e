package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/coinwatch/bookfeed/api"
	"github.com/coinwatch/bookfeed/internal/config"
	"github.com/coinwatch/bookfeed/internal/connector"
	"github.com/coinwatch/bookfeed/internal/marketdata"
	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	conn, err := connector.New(cfg.Feed.Exchange, connector.Config{
		BaseURL: cfg.Feed.BaseURL,
		Timeout: cfg.Feed.HTTPTimeout,
	})
	if err != nil {
		zapLogger.Fatal("Failed to create feed connector", zap.Error(err))
	}

	store := orderbook.NewStore()
	hub := marketdata.NewHub(zapLogger, store, cfg.Feed.TopK, cfg.Hub.MaxSubscribers)
	simulator := marketdata.NewSimulator(store)

	var bus marketdata.Bus
	switch cfg.PubSub.Backend {
	case "redis":
		bus = marketdata.NewRedisBus(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, zapLogger)
	case "kafka":
		bus = marketdata.NewKafkaBus(cfg.Kafka.Brokers, zapLogger)
	default:
		bus = marketdata.NewInprocBus()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bus.Subscribe(ctx, cfg.PubSub.Channel, hub.Broadcast); err != nil {
		zapLogger.Fatal("Failed to subscribe hub to delta channel", zap.Error(err))
	}

	poller := marketdata.NewPoller(zapLogger, conn, store, bus, marketdata.PollerConfig{
		Symbol:       cfg.Feed.Symbol,
		Depth:        cfg.Feed.Depth,
		TopK:         cfg.Feed.TopK,
		PollInterval: cfg.Feed.PollInterval,
		MaxAttempts:  cfg.Feed.MaxAttempts,
		RetryDelay:   cfg.Feed.RetryDelay,
		Channel:      cfg.PubSub.Channel,
	})
	go poller.Run(ctx)

	// Health flips to degraded once the book is three intervals stale.
	apiServer := api.NewServer(zapLogger, store, simulator, hub, cfg.Feed.TopK, 3*cfg.Feed.PollInterval)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := apiServer.Start(addr); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down...")

	cancel()
	hub.Shutdown()
	zapLogger.Info("Server exited properly")
}
