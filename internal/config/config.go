package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Card and report store.
	SQLitePath string

	// Station card ingestion over MQTT.
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	// Synoptic-hour re-encoding sweep, cron syntax evaluated in UTC.
	SweepEnabled  bool
	SweepSchedule string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mqttEnabled, err := parseBool("MQTT_ENABLED", false)
	if err != nil {
		return nil, err
	}

	sweepEnabled, err := parseBool("SWEEP_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-observation-cards"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "synop-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "synop-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		SQLitePath: sharedcfg.EnvOrDefault("SQLITE_PATH", "data/synop.db"),

		MQTTEnabled:  mqttEnabled,
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTClientID: sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "synop-etl"),
		MQTTTopic:    sharedcfg.EnvOrDefault("MQTT_TOPIC", "synop/+/cards"),

		SweepEnabled:  sweepEnabled,
		SweepSchedule: sharedcfg.EnvOrDefault("SWEEP_SCHEDULE", "10 */3 * * *"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.MQTTEnabled && cfg.MQTTBroker == "" {
		return nil, errors.New("MQTT_ENABLED is true but MQTT_BROKER is not set")
	}
	if cfg.SweepEnabled {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			return nil, fmt.Errorf("invalid SWEEP_SCHEDULE: %w", err)
		}
	}

	return cfg, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	switch strings.ToLower(os.Getenv(key)) {
	case "":
		return fallback, nil
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
}
