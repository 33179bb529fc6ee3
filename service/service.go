package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cursedticket/http"
	"cursedticket/message"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Deps struct {
	Logger      watermill.LoggerAdapter
	DB          *sqlx.DB
	RedisClient *redis.Client
	HTTPAddr    string

	HTTP      http.RouterDeps
	SalesRepo message.SalesRepo
}

type Service struct {
	msgRouter  *message.Router
	forwarder  *message.Forwarder
	httpRouter *echo.Echo
	httpAddr   string
}

func New(deps Deps) (*Service, error) {
	msgRouter, err := message.NewRouter(message.RouterDeps{
		Logger:      deps.Logger,
		RedisClient: deps.RedisClient,
		SalesRepo:   deps.SalesRepo,
	})
	if err != nil {
		return nil, fmt.Errorf("creating message router: %w", err)
	}

	fwd, err := message.NewForwarder(deps.DB, deps.RedisClient, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating forwarder: %w", err)
	}

	addr := deps.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}

	return &Service{
		msgRouter:  msgRouter,
		forwarder:  fwd,
		httpRouter: http.NewRouter(deps.HTTP),
		httpAddr:   addr,
	}, nil
}

func (s Service) Run(ctx context.Context) error {
	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.msgRouter.Run(runCtx); err != nil {
			return fmt.Errorf("running messaging router: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := s.forwarder.Run(runCtx); err != nil {
			return fmt.Errorf("running outbox forwarder: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		// Wait for message router
		<-s.msgRouter.Running()

		logrus.WithField("addr", s.httpAddr).Info("Starting HTTP server...")
		err := s.httpRouter.Start(s.httpAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logrus.Info("Shutting down HTTP server...")
		if err := s.httpRouter.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("waiting for shutdown: %w", err)
	}
	logrus.Info("Shutdown complete.")

	return nil
}
