package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/synop-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSweepStore struct{}

func (failingSweepStore) StationsWithCards(context.Context, time.Time) ([]string, error) {
	return nil, errors.New("database is closed")
}

func TestSweeper_RunOnce(t *testing.T) {
	store := newSQLiteStore(t)
	tfm := pipeline.NewTransformer(store, slog.Default())
	for _, raw := range readCardFixtures(t) {
		_, _ = tfm.Transform(context.Background(), raw)
	}

	ldr := &mockLoader{}
	metrics := newTestMetrics()
	s := pipeline.NewSweeper("@every 1h", store, tfm, ldr, slog.Default(), metrics)

	res, err := s.RunOnce(context.Background(), slot.Add(2*time.Hour))
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, slot, res.ObservingTime)
	assert.Equal(t, 1, res.Encoded)
	assert.Equal(t, 1, res.Pending)
	assert.Zero(t, res.Failed)

	loaded := ldr.Loaded()
	require.Len(t, loaded, 1)
	assert.Equal(t, "41953", loaded[0].StationNumber)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SweepRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportsEncoded.WithLabelValues("sweep")))
}

func TestSweeper_RunOnce_EmptySlot(t *testing.T) {
	store := newSQLiteStore(t)
	ldr := &mockLoader{}
	s := pipeline.NewSweeper("@every 1h", store, pipeline.NewTransformer(store, slog.Default()), ldr, slog.Default(), newTestMetrics())

	res, err := s.RunOnce(context.Background(), slot)
	require.NoError(t, err)
	assert.Zero(t, res.Encoded)
	assert.Empty(t, ldr.Loaded())
}

func TestSweeper_RunOnce_Errors(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		metrics := newTestMetrics()
		s := pipeline.NewSweeper("@every 1h", failingSweepStore{}, nil, &mockLoader{}, slog.Default(), metrics)

		_, err := s.RunOnce(context.Background(), slot)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is closed")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SweepRuns.WithLabelValues("error")))
	})

	t.Run("loader", func(t *testing.T) {
		store := newSQLiteStore(t)
		tfm := pipeline.NewTransformer(store, slog.Default())
		for _, raw := range readCardFixtures(t) {
			_, _ = tfm.Transform(context.Background(), raw)
		}
		metrics := newTestMetrics()
		s := pipeline.NewSweeper("@every 1h", store, tfm, &mockLoader{err: errors.New("broker down")}, slog.Default(), metrics)

		_, err := s.RunOnce(context.Background(), slot)
		require.Error(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SweepRuns.WithLabelValues("error")))
	})
}

func TestSweeper_StartStop(t *testing.T) {
	store := newSQLiteStore(t)
	s := pipeline.NewSweeper("10 */3 * * *", store, pipeline.NewTransformer(store, slog.Default()), &mockLoader{}, slog.Default(), newTestMetrics())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestSweeper_StartInvalidSchedule(t *testing.T) {
	store := newSQLiteStore(t)
	s := pipeline.NewSweeper("not a schedule", store, pipeline.NewTransformer(store, slog.Default()), &mockLoader{}, slog.Default(), newTestMetrics())
	assert.Error(t, s.Start())
}
