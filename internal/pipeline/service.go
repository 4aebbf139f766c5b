package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/observability"
)

// StationLookup resolves station numbers that have reported.
type StationLookup interface {
	LookupStation(ctx context.Context, station string) (domain.Station, error)
}

// Service serves cards and report requests that arrive outside the Kafka
// loop: HTTP and MQTT.
type Service struct {
	transformer *SynopTransformer
	stations    StationLookup
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewService wires the request-driven paths to the shared transformer and sinks.
func NewService(t *SynopTransformer, stations StationLookup, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		transformer: t,
		stations:    stations,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// HandleCard stores a card and, when its pair is complete, loads and returns
// the report. complete is false while the partner card is missing.
func (s *Service) HandleCard(ctx context.Context, source string, card domain.ObservationCard) (report domain.SynopticReport, complete bool, err error) {
	report, err = s.transformer.Accept(ctx, card)
	if errors.Is(err, domain.ErrObservationNotFound) {
		s.metrics.PendingCards.Inc()
		return domain.SynopticReport{}, false, nil
	}
	if err != nil {
		s.metrics.TransformErrors.Inc()
		return domain.SynopticReport{}, false, err
	}

	if err := s.loader.LoadBatch(ctx, []domain.SynopticReport{report}); err != nil {
		return domain.SynopticReport{}, false, err
	}
	s.metrics.MessagesProduced.Inc()
	s.metrics.ReportsEncoded.WithLabelValues(source).Inc()
	s.logger.Info("report encoded", "source", source, "station", report.StationNumber, "observing_time", report.ObservingTime)
	return report, true, nil
}

// StationReport rebuilds the report for a known station at the observing time
// containing at. A zero at means now.
func (s *Service) StationReport(ctx context.Context, station string, at time.Time) (domain.SynopticReport, error) {
	station, err := domain.NormalizeStationNumber(station)
	if err != nil {
		return domain.SynopticReport{}, err
	}
	if _, err := s.stations.LookupStation(ctx, station); err != nil {
		return domain.SynopticReport{}, err
	}
	if at.IsZero() {
		at = domain.Now()
	}

	report, err := s.transformer.Encode(ctx, station, domain.ObservingTime(at))
	if err != nil {
		return domain.SynopticReport{}, err
	}
	s.metrics.ReportsEncoded.WithLabelValues("http").Inc()
	return report, nil
}

// EncodeReadings encodes readings supplied by the caller without touching the store.
func (s *Service) EncodeReadings(met *domain.MeteorologicalReading, obs *domain.WeatherObservation, station string, observedAt time.Time) (domain.SynopticReport, error) {
	station, err := domain.NormalizeStationNumber(station)
	if err != nil {
		return domain.SynopticReport{}, err
	}
	report, err := domain.BuildSynopticReport(met, obs, station, observedAt)
	if err != nil {
		return domain.SynopticReport{}, err
	}
	s.metrics.ReportsEncoded.WithLabelValues("http").Inc()
	return report, nil
}
