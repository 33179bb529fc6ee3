package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"cursedticket/booking"
	"cursedticket/config"
	"cursedticket/http"
	"cursedticket/idempotency"
	"cursedticket/message"
	"cursedticket/postgres"
	"cursedticket/service"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log.Init(cfg.LogLevel)
	logger := watermill.NewStdLogger(false, false)

	if err := run(cfg, logger); err != nil {
		logger.Error("failed to run", err, nil)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger watermill.LoggerAdapter) error {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close redis connection", err, nil)
		}
	}()

	dbConn, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close db connection", err, nil)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := postgres.InitialiseDB(ctx, dbConn); err != nil {
		return fmt.Errorf("initialising db: %w", err)
	}
	if err := message.InitialiseOutbox(dbConn, logger); err != nil {
		return fmt.Errorf("initialising outbox: %w", err)
	}

	clk := cfg.Clock()
	eventRepo := postgres.NewEventRepo(dbConn, clk, logger)
	ticketRepo := postgres.NewTicketRepo(dbConn, logger)
	salesRepo := postgres.NewSalesRepo(dbConn)

	reconciler := booking.NewReconciler(eventRepo, ticketRepo, clk, booking.Config{
		ReserveCapacity: cfg.ReserveCapacity,
		RefundPolicy:    cfg.RefundPolicy,
	})

	svc, err := service.New(service.Deps{
		Logger:      logger,
		DB:          dbConn,
		RedisClient: rdb,
		HTTPAddr:    cfg.HTTPAddr,
		HTTP: http.RouterDeps{
			Reconciler:  reconciler,
			EventRepo:   eventRepo,
			TicketRepo:  ticketRepo,
			RefundRepo:  postgres.NewRefundRepo(dbConn),
			SalesRepo:   salesRepo,
			Idempotency: idempotency.NewStore(rdb, cfg.IdempotencyTTL),
			Clock:       clk,
		},
		SalesRepo: salesRepo,
	})
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	return svc.Run(ctx)
}
