package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureCards(t *testing.T) []domain.ObservationCard {
	t.Helper()
	raws := readCardFixtures(t)
	cards := make([]domain.ObservationCard, len(raws))
	for i, raw := range raws {
		card, err := domain.ParseObservationCard(raw)
		require.NoError(t, err)
		cards[i] = card
	}
	return cards
}

func TestService_HandleCard(t *testing.T) {
	store := newSQLiteStore(t)
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	svc := pipeline.NewService(pipeline.NewTransformer(store, slog.Default()), store, ldr, slog.Default(), metrics)
	cards := fixtureCards(t)

	_, complete, err := svc.HandleCard(context.Background(), "mqtt", cards[0])
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Empty(t, ldr.Loaded())

	report, complete, err := svc.HandleCard(context.Background(), "mqtt", cards[2])
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, "50915", report.Group("Nddff"))
	require.Len(t, ldr.Loaded(), 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PendingCards))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportsEncoded.WithLabelValues("mqtt")))
}

func TestService_HandleCard_LoadError(t *testing.T) {
	store := newSQLiteStore(t)
	ldr := &mockLoader{err: errors.New("broker down")}
	svc := pipeline.NewService(pipeline.NewTransformer(store, slog.Default()), store, ldr, slog.Default(), newTestMetrics())
	cards := fixtureCards(t)

	_, _, err := svc.HandleCard(context.Background(), "http", cards[0])
	require.NoError(t, err)

	_, complete, err := svc.HandleCard(context.Background(), "http", cards[2])
	require.Error(t, err)
	assert.False(t, complete)
}

func TestService_StationReport(t *testing.T) {
	store := newSQLiteStore(t)
	svc := pipeline.NewService(pipeline.NewTransformer(store, slog.Default()), store, &mockLoader{}, slog.Default(), newTestMetrics())
	for _, c := range fixtureCards(t) {
		_, _, err := svc.HandleCard(context.Background(), "http", c)
		require.NoError(t, err)
	}

	t.Run("complete pair", func(t *testing.T) {
		report, err := svc.StationReport(context.Background(), "41953", slot.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "41953", report.StationNumber)
		assert.Equal(t, slot, report.ObservingTime)
	})

	t.Run("defaults to now", func(t *testing.T) {
		// The test clock sits at 07:00, inside the 06:00 slot.
		report, err := svc.StationReport(context.Background(), "41953", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, slot, report.ObservingTime)
	})

	t.Run("missing partner card", func(t *testing.T) {
		_, err := svc.StationReport(context.Background(), "96749", slot)
		assert.ErrorIs(t, err, domain.ErrObservationNotFound)
	})

	t.Run("other slot", func(t *testing.T) {
		_, err := svc.StationReport(context.Background(), "41953", slot.Add(-3*time.Hour))
		assert.ErrorIs(t, err, domain.ErrObservationNotFound)
	})

	t.Run("unknown station", func(t *testing.T) {
		_, err := svc.StationReport(context.Background(), "12345", slot)
		assert.ErrorIs(t, err, domain.ErrStationNotFound)
	})

	t.Run("invalid station", func(t *testing.T) {
		_, err := svc.StationReport(context.Background(), "WMKK", slot)
		assert.ErrorIs(t, err, domain.ErrInvalidStation)
	})
}

func TestService_EncodeReadings(t *testing.T) {
	svc := pipeline.NewService(nil, nil, &mockLoader{}, slog.Default(), newTestMetrics())
	cards := fixtureCards(t)

	report, err := svc.EncodeReadings(cards[0].Meteorological, cards[2].Weather, "41953", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "06", report.Group("GG"))

	_, err = svc.EncodeReadings(cards[0].Meteorological, nil, "41953", time.Time{})
	assert.ErrorIs(t, err, domain.ErrObservationNotFound)
}
