package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/api"
	"github.com/Domenick1991/handybook/config"
	"github.com/Domenick1991/handybook/internal/bootstrap"
	"github.com/Domenick1991/handybook/internal/consumer"
	"github.com/Domenick1991/handybook/internal/events"
	"github.com/Domenick1991/handybook/internal/rabbit"
	"github.com/Domenick1991/handybook/internal/service/availability"
	"github.com/Domenick1991/handybook/internal/store"
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

	slotStore := store.NewAvailabilityStore(redisClient, log)
	reservations := store.NewReservationStore(
		redisClient,
		time.Duration(cfg.Saga.HoldTTLSeconds)*time.Second,
		time.Duration(cfg.Saga.ProviderLockSeconds)*time.Second,
		log,
	)

	saga := availability.NewSagaService(slotStore, reservations, publisher, log)
	availabilityService := availability.NewService(slotStore, publisher, log)

	markers := store.NewIdempotencyMarkers(redisClient, time.Duration(cfg.Saga.IdempotencyTTLSeconds)*time.Second)
	shell := consumer.NewShell(markers, log).
		On(events.TypeBookingRequested, saga.HandleBookingRequested).
		On(events.TypeBookingConfirmRequested, saga.HandleConfirmRequested)

	intake := rabbit.NewConsumer(rabbit.ConsumerConfig{
		URL:      cfg.Rabbit.URL,
		Exchange: cfg.Rabbit.Exchange,
		Queue:    cfg.Rabbit.AvailabilityQueue,
		Bindings: []string{events.TypeBookingRequested, events.TypeBookingConfirmRequested},
		Prefetch: cfg.Rabbit.Prefetch,
	}, log)
	defer intake.Close()

	go func() {
		if err := intake.Connect(ctx); err != nil {
			return
		}
		if err := intake.Run(ctx, shell.Handle); err != nil {
			log.Error("availability saga consumer stopped", zap.Error(err))
		}
	}()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "availability-service"})
	})
	api.NewAvailabilityHandler(availabilityService).Register(router.Group("/availability"))

	log.Info("availability service started", zap.String("address", cfg.Availability.Address))
	if err := bootstrap.RunHTTP(ctx, cfg.Availability.Address, router); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}
