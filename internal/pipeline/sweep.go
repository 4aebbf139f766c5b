package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// SweepStore lists the stations holding cards for an observing time.
type SweepStore interface {
	StationsWithCards(ctx context.Context, observingTime time.Time) ([]string, error)
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	RunID         string
	ObservingTime time.Time
	Encoded       int
	Pending       int
	Failed        int
}

// Sweeper re-encodes every station of the current observing time on a cron schedule.
type Sweeper struct {
	cron        *cron.Cron
	schedule    string
	store       SweepStore
	transformer *SynopTransformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	timeout     time.Duration
}

// NewSweeper creates a sweeper for a standard 5-field cron schedule evaluated in UTC.
func NewSweeper(schedule string, store SweepStore, t *SynopTransformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		schedule:    schedule,
		store:       store,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		timeout:     time.Minute,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("sweep scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx, domain.Now()); err != nil {
		s.logger.Error("sweep failed", "error", err)
	}
}

// RunOnce encodes and loads the reports of every station with cards in the
// observing time containing at. Stations still missing a card are skipped.
func (s *Sweeper) RunOnce(ctx context.Context, at time.Time) (SweepResult, error) {
	res := SweepResult{
		RunID:         uuid.New().String(),
		ObservingTime: domain.ObservingTime(at),
	}
	logger := s.logger.With("run_id", res.RunID, "observing_time", res.ObservingTime)
	logger.Info("sweep started")

	stations, err := s.store.StationsWithCards(ctx, res.ObservingTime)
	if err != nil {
		s.metrics.SweepRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("sweep %s: %w", res.RunID, err)
	}

	reports := make([]domain.SynopticReport, 0, len(stations))
	for _, station := range stations {
		report, err := s.transformer.Encode(ctx, station, res.ObservingTime)
		switch {
		case errors.Is(err, domain.ErrObservationNotFound):
			res.Pending++
			continue
		case err != nil:
			res.Failed++
			logger.Warn("sweep encode failed", "station", station, "error", err)
			continue
		}
		reports = append(reports, report)
	}

	if err := s.loader.LoadBatch(ctx, reports); err != nil {
		s.metrics.SweepRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("sweep %s: %w", res.RunID, err)
	}
	res.Encoded = len(reports)

	s.metrics.SweepRuns.WithLabelValues("success").Inc()
	s.metrics.ReportsEncoded.WithLabelValues("sweep").Add(float64(res.Encoded))
	logger.Info("sweep completed",
		"stations", len(stations),
		"encoded", res.Encoded,
		"pending", res.Pending,
		"failed", res.Failed,
	)
	return res, nil
}
