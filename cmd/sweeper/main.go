package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/config"
	"github.com/Domenick1991/handybook/internal/rabbit"
	"github.com/Domenick1991/handybook/internal/store"
	"github.com/Domenick1991/handybook/internal/sweeper"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient := store.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	publisher, err := rabbit.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange, log)
	if err != nil {
		log.Fatal("connect rabbitmq", zap.Error(err))
	}
	defer publisher.Close()

	reservations := store.NewReservationStore(
		redisClient,
		time.Duration(cfg.Saga.HoldTTLSeconds)*time.Second,
		time.Duration(cfg.Saga.ProviderLockSeconds)*time.Second,
		log,
	)

	log.Info("expiry sweeper started",
		zap.Int("interval_seconds", cfg.Sweeper.IntervalSeconds),
		zap.Int("batch_size", cfg.Sweeper.BatchSize))

	sweeper.New(
		reservations,
		publisher,
		time.Duration(cfg.Sweeper.IntervalSeconds)*time.Second,
		int64(cfg.Sweeper.BatchSize),
		log,
	).Run(ctx)

	log.Info("expiry sweeper stopped")
}
