package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/app"
	"github.com/flobe99/svb-chicken.backend/internal/broadcast"
	"github.com/flobe99/svb-chicken.backend/internal/clock"
	"github.com/flobe99/svb-chicken.backend/internal/config"
	"github.com/flobe99/svb-chicken.backend/internal/logging"
	"github.com/flobe99/svb-chicken.backend/internal/relay"
	"github.com/flobe99/svb-chicken.backend/internal/storage/postgres"
	redisstore "github.com/flobe99/svb-chicken.backend/internal/storage/redis"
	transporthttp "github.com/flobe99/svb-chicken.backend/internal/transport/http"
	"github.com/flobe99/svb-chicken.backend/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := os.Getenv("CHICKEN_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath, ".env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(logging.Options{
		Component: cfg.App.Name,
		Level:     cfg.App.LogLevel,
		File:      cfg.App.LogFile,
	})
	slog.SetDefault(logger)

	err = run(cfg, logger)
	if err != nil {
		logger.Error("api stopped with error", "error", err)
	} else {
		logger.Info("api stopped")
	}
	_ = logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool, logger); err != nil {
		return err
	}

	hub := broadcast.NewHub(logger.With("component", "feed"),
		broadcast.WithQueueSize(cfg.Feed.QueueSize),
		broadcast.WithWriteTimeout(cfg.Feed.WriteTimeout),
	)
	defer hub.Close()

	if err := registerRelays(ctx, cfg, hub, logger); err != nil {
		return err
	}

	opts := []app.OrderServiceOption{app.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		opts = append(opts, app.WithIdempotency(redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)))
		logger.Info("idempotency keys enabled", "redis_addr", cfg.Redis.Addr)
	}

	orderRepo := postgres.NewOrderRepository(pool, loc)
	adminRepo := postgres.NewAdminRepository(pool, loc)
	orderSvc := app.NewOrderService(orderRepo, adminRepo, hub, clock.NewSystem(loc), opts...)
	adminSvc := app.NewAdminService(adminRepo)

	server := &http.Server{
		Addr: cfg.App.HTTPAddr,
		Handler: transporthttp.NewRouter(transporthttp.RouterConfig{
			Orders:           orderSvc,
			Admin:            adminSvc,
			Feed:             hub,
			DB:               pool,
			Metrics:          promhttp.Handler(),
			Location:         loc,
			Logger:           logger,
			CORSOrigins:      cfg.App.CORSOrigins,
			FeedWriteTimeout: cfg.Feed.WriteTimeout,
			FeedPingInterval: cfg.Feed.PingInterval,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", server.Addr, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}

	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(startupCtx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(startupCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// registerRelays attaches the optional broker relays as feed observers.
// The hub closes them on shutdown.
func registerRelays(ctx context.Context, cfg config.Config, hub *broadcast.Hub, logger *slog.Logger) error {
	if cfg.RabbitMQ.URL != "" {
		rmq, err := relay.NewRabbitMQ(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger.With("component", "rabbitmq"))
		if err != nil {
			return err
		}
		if _, err := hub.Register(rmq); err != nil {
			_ = rmq.Close()
			return err
		}
		logger.Info("rabbitmq relay enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := relay.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.With("component", "kafka"))
		if err != nil {
			return err
		}
		if _, err := hub.Register(kafka); err != nil {
			_ = kafka.Close()
			return err
		}
		logger.Info("kafka relay enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	return nil
}
