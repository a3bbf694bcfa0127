package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, DriverMemory, cfg.StorageDriver)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, []string{"hydration_notifications"}, cfg.ConsumerTopics)
	require.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, int32(20), cfg.PostgresMaxConns)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9092,")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("DLQ_MAX_RETRIES", "9")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.StorageDriver)
	require.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	require.Equal(t, 9, cfg.DLQMaxRetries)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := load(viper.New())
	require.ErrorContains(t, err, "unsupported STORAGE_DRIVER")
}
