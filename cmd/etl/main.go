package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/synop-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/synop-etl/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/synop-etl/internal/adapter/mqtt"
	"github.com/couchcryptid/synop-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/synop-etl/internal/config"
	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/observability"
	"github.com/couchcryptid/synop-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open card store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := sqlite.NewStore(db, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	// Reports are persisted before they are published.
	loader := pipeline.NewFanOutLoader().With("sqlite", store).With("kafka", writer)
	transformer := pipeline.NewTransformer(store, logger)

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)
	svc := pipeline.NewService(transformer, store, loader, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sweeper *pipeline.Sweeper
	if cfg.SweepEnabled {
		sweeper = pipeline.NewSweeper(cfg.SweepSchedule, store, transformer, loader, logger, metrics)
		if err := sweeper.Start(); err != nil {
			logger.Error("failed to start sweep", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("sweep disabled")
	}

	var subscriber *mqttadapter.Subscriber
	if cfg.MQTTEnabled {
		subscriber = mqttadapter.NewSubscriber(cfg, func(ctx context.Context, card domain.ObservationCard) (bool, error) {
			_, complete, err := svc.HandleCard(ctx, "mqtt", card)
			return complete, err
		}, logger, metrics)
		go func() {
			if err := subscriber.Connect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mqtt connect error", "error", err)
			}
		}()
	} else {
		logger.Info("mqtt ingestion disabled")
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if subscriber != nil {
		subscriber.Disconnect()
	}
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
