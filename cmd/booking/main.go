package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/api"
	"github.com/Domenick1991/handybook/config"
	"github.com/Domenick1991/handybook/internal/bootstrap"
	"github.com/Domenick1991/handybook/internal/consumer"
	"github.com/Domenick1991/handybook/internal/events"
	"github.com/Domenick1991/handybook/internal/rabbit"
	"github.com/Domenick1991/handybook/internal/repository"
	"github.com/Domenick1991/handybook/internal/service/booking"
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

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisClient := store.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	publisher, err := rabbit.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange, log)
	if err != nil {
		log.Fatal("connect rabbitmq", zap.Error(err))
	}
	defer publisher.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	bookingService := booking.NewBookingService(bookingRepo, publisher, log)

	markers := store.NewIdempotencyMarkers(redisClient, time.Duration(cfg.Saga.IdempotencyTTLSeconds)*time.Second)
	shell := consumer.NewShell(markers, log).
		On(events.TypeSlotReserved, bookingService.ApplyEvent).
		On(events.TypeSlotRejected, bookingService.ApplyEvent).
		On(events.TypeSlotConfirmed, bookingService.ApplyEvent).
		On(events.TypeSlotExpired, bookingService.ApplyEvent)

	intake := rabbit.NewConsumer(rabbit.ConsumerConfig{
		URL:      cfg.Rabbit.URL,
		Exchange: cfg.Rabbit.Exchange,
		Queue:    cfg.Rabbit.BookingQueue,
		Bindings: []string{events.TypeSlotReserved, events.TypeSlotRejected, events.TypeSlotConfirmed, events.TypeSlotExpired},
		Prefetch: cfg.Rabbit.Prefetch,
	}, log)
	defer intake.Close()

	go func() {
		if err := intake.Connect(ctx); err != nil {
			return
		}
		if err := intake.Run(ctx, shell.Handle); err != nil {
			log.Error("booking event intake stopped", zap.Error(err))
		}
	}()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "booking-service"})
	})
	api.NewBookingHandler(bookingService).Register(router.Group("/bookings"))

	log.Info("booking service started", zap.String("address", cfg.Booking.Address))
	if err := bootstrap.RunHTTP(ctx, cfg.Booking.Address, router); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}
