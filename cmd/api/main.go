package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/hydration/internal/api"
	"example.com/hydration/internal/auth"
	"example.com/hydration/internal/config"
	"example.com/hydration/internal/dailyplan"
	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/logger"
	"example.com/hydration/internal/notification"
	"example.com/hydration/internal/outbox"
	"example.com/hydration/internal/persistence/memory"
	"example.com/hydration/internal/persistence/postgres"
	"example.com/hydration/internal/recommendation"
	"example.com/hydration/internal/statistics"
	"example.com/hydration/internal/tracking"
	httptransport "example.com/hydration/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hydration-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogEnv, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var store domain.Store
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := postgres.OpenPool(ctx, postgres.PoolConfig{
			URL:             cfg.PostgresURL,
			MaxConns:        cfg.PostgresMaxConns,
			MinConns:        cfg.PostgresMinConns,
			MaxConnLifetime: cfg.PostgresMaxConnLifetime,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewRepository(pool)
		startOutbox(ctx, g, cfg, pool, log)
	default:
		log.Warn("using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	}

	engine := dailyplan.NewEngine(store, dailyplan.WithLogger(log))
	notifier := notification.NewDispatcher(store, notification.WithLogger(log))
	evaluator := recommendation.NewEvaluator(store, notifier, recommendation.WithLogger(log))

	handler := api.NewHandler(api.Services{
		Users:           tracking.NewUserService(store),
		Profiles:        tracking.NewProfileService(store, engine, log),
		Plans:           engine,
		Intakes:         tracking.NewIntakeService(store, engine, evaluator, log),
		Activities:      tracking.NewActivityService(store, engine, evaluator, log),
		Recommendations: evaluator,
		Notifications:   notifier,
		Statistics:      statistics.NewService(store),
	}, log)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, nil)
	apiServer := httptransport.NewServer(httptransport.ServerConfig{Address: cfg.HTTPAddress}, authMiddleware.Wrap(mux))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsServer := httptransport.NewServer(httptransport.ServerConfig{Address: cfg.MetricsAddress}, metricsMux)

	g.Go(func() error {
		return httptransport.Run(ctx, apiServer, cfg.ShutdownTimeout, log.Named("api"))
	})
	g.Go(func() error {
		return httptransport.Run(ctx, metricsServer, cfg.ShutdownTimeout, log.Named("metrics"))
	})

	log.Info("hydration api started",
		zap.String("address", cfg.HTTPAddress),
		zap.String("storage", cfg.StorageDriver))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("hydration api stopped")
	return nil
}

// startOutbox relays committed outbox rows to Kafka for as long as ctx lives.
func startOutbox(ctx context.Context, g *errgroup.Group, cfg config.Config, pool *pgxpool.Pool, log *zap.Logger) {
	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, log)
	registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
	dispatcher := outbox.NewDispatcher(pool, producer, registry, log, cfg.OutboxPollInterval, cfg.OutboxBatchSize)

	g.Go(func() error {
		defer func() {
			if err := producer.Close(); err != nil {
				log.Warn("close kafka producer", zap.Error(err))
			}
		}()
		return dispatcher.Start(ctx)
	})
}
