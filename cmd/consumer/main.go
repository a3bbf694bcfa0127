package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/hydration/internal/config"
	"example.com/hydration/internal/consumer"
	"example.com/hydration/internal/logger"
	"example.com/hydration/internal/persistence/postgres"
	httptransport "example.com/hydration/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hydration-consumer: %v\n", err)
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

	if len(cfg.ConsumerTopics) == 0 {
		return errors.New("CONSUMER_TOPICS must name at least one topic")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		GroupTopics:     cfg.ConsumerTopics,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	processor := consumer.NewProcessor(reader, consumer.NewNotificationLogHandler(pool), consumer.WithLogger(log))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsServer := httptransport.NewServer(httptransport.ServerConfig{Address: cfg.MetricsAddress}, metricsMux)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httptransport.Run(ctx, metricsServer, cfg.ShutdownTimeout, log.Named("metrics"))
	})
	g.Go(func() error {
		log.Info("consumer started",
			zap.Strings("topics", cfg.ConsumerTopics),
			zap.String("group", cfg.ConsumerGroupID))
		return processor.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("consumer stopped")
	return nil
}
