package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
)

// CardStore keeps observation cards by station and observing time.
type CardStore interface {
	SaveCard(ctx context.Context, card domain.ObservationCard) error
	LatestReadings(ctx context.Context, station string, observingTime time.Time) (*domain.MeteorologicalReading, *domain.WeatherObservation, error)
}

// SynopTransformer implements Transformer: every card is stored, then the
// station's report is rebuilt from both cards of the card's observing time.
type SynopTransformer struct {
	store  CardStore
	logger *slog.Logger
}

// NewTransformer creates a SynopTransformer backed by the card store.
func NewTransformer(store CardStore, logger *slog.Logger) *SynopTransformer {
	return &SynopTransformer{
		store:  store,
		logger: logger,
	}
}

// Transform parses and accepts one raw card.
func (t *SynopTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.SynopticReport, error) {
	card, err := domain.ParseObservationCard(raw)
	if err != nil {
		return domain.SynopticReport{}, err
	}
	return t.Accept(ctx, card)
}

// Accept stores a parsed card and encodes its slot. It returns
// domain.ErrObservationNotFound until both cards are present.
func (t *SynopTransformer) Accept(ctx context.Context, card domain.ObservationCard) (domain.SynopticReport, error) {
	if err := t.store.SaveCard(ctx, card); err != nil {
		return domain.SynopticReport{}, fmt.Errorf("store %s card: %w", card.Kind, err)
	}
	t.logger.Debug("card stored",
		"station", card.StationNumber,
		"kind", card.Kind,
		"observing_time", card.ObservingTime(),
	)
	return t.Encode(ctx, card.StationNumber, card.ObservingTime())
}

// Encode rebuilds the report for a station and observing time from the stored cards.
func (t *SynopTransformer) Encode(ctx context.Context, station string, observingTime time.Time) (domain.SynopticReport, error) {
	met, obs, err := t.store.LatestReadings(ctx, station, observingTime)
	if err != nil {
		return domain.SynopticReport{}, err
	}
	return domain.BuildSynopticReport(met, obs, station, time.Time{})
}
