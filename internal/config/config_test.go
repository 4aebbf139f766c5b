package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker = "localhost:9092"
	testBroker    = "tcp://mosquitto:1883"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-observation-cards", cfg.KafkaSourceTopic)
	assert.Equal(t, "synop-reports", cfg.KafkaSinkTopic)
	assert.Equal(t, "synop-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "data/synop.db", cfg.SQLitePath)
	assert.False(t, cfg.MQTTEnabled)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, "synop-etl", cfg.MQTTClientID)
	assert.Equal(t, "synop/+/cards", cfg.MQTTTopic)
	assert.True(t, cfg.SweepEnabled)
	assert.Equal(t, "10 */3 * * *", cfg.SweepSchedule)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("SQLITE_PATH", "/var/lib/synop/cards.db")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", testBroker)
	t.Setenv("MQTT_CLIENT_ID", "etl-1")
	t.Setenv("MQTT_TOPIC", "stations/+/synop")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("SWEEP_SCHEDULE", "5 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/var/lib/synop/cards.db", cfg.SQLitePath)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, testBroker, cfg.MQTTBroker)
	assert.Equal(t, "etl-1", cfg.MQTTClientID)
	assert.Equal(t, "stations/+/synop", cfg.MQTTTopic)
	assert.False(t, cfg.SweepEnabled)
	assert.Equal(t, "5 * * * *", cfg.SweepSchedule)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_EmptyBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_MQTTEnabledWithoutBroker(t *testing.T) {
	t.Setenv("MQTT_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_BROKER")
}

func TestLoad_InvalidMQTTEnabled(t *testing.T) {
	t.Setenv("MQTT_ENABLED", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_ENABLED")
}

func TestLoad_InvalidSweepSchedule(t *testing.T) {
	t.Setenv("SWEEP_SCHEDULE", "every three hours")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SWEEP_SCHEDULE")
}

func TestLoad_SweepScheduleIgnoredWhenDisabled(t *testing.T) {
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("SWEEP_SCHEDULE", "every three hours")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SweepEnabled)
}
