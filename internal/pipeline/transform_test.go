package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/synop-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slot = time.Date(2024, 4, 26, 6, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 7, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	return sqlite.NewStore(db, slog.Default())
}

// readCardFixtures returns the raw card envelopes in testdata/cards.json.
func readCardFixtures(t *testing.T) []domain.RawEvent {
	t.Helper()
	data, err := os.ReadFile("testdata/cards.json")
	require.NoError(t, err)

	var cards []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &cards))

	raws := make([]domain.RawEvent, len(cards))
	for i, c := range cards {
		raws[i] = domain.RawEvent{Value: c, Offset: int64(i), Timestamp: slot.Add(time.Hour)}
	}
	return raws
}

func TestSynopTransformer_WithCardFixtures(t *testing.T) {
	tfm := pipeline.NewTransformer(newSQLiteStore(t), slog.Default())
	raws := readCardFixtures(t)
	require.Len(t, raws, 3)

	_, err := tfm.Transform(context.Background(), raws[0])
	require.ErrorIs(t, err, domain.ErrObservationNotFound, "first card of a pair waits")

	_, err = tfm.Transform(context.Background(), raws[1])
	require.ErrorIs(t, err, domain.ErrObservationNotFound, "other station does not complete the pair")

	report, err := tfm.Transform(context.Background(), raws[2])
	require.NoError(t, err)

	want := []string{
		"1", "41953", "32650", "50915", "10255", "20200", "30085/40102",
		"60010", "70112", "83247", "10224", "80230", "56123", "57-00",
		"2", "06", "59012", "(60010)/7010", "83260/82815/80000", "90055", "91080",
	}
	if diff := cmp.Diff(want, report.Measurements); diff != "" {
		t.Fatalf("measurements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "41953", report.StationNumber)
	assert.Equal(t, slot, report.ObservingTime)
	assert.Equal(t, 26, report.Day)
	assert.NoError(t, domain.ValidateReport(report))
}

func TestSynopTransformer_InvalidCard(t *testing.T) {
	tfm := pipeline.NewTransformer(newSQLiteStore(t), slog.Default())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(`{"kind":"radar"}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidCard)
}

type failingStore struct {
	saveErr error
	readErr error
}

func (f *failingStore) SaveCard(context.Context, domain.ObservationCard) error { return f.saveErr }

func (f *failingStore) LatestReadings(context.Context, string, time.Time) (*domain.MeteorologicalReading, *domain.WeatherObservation, error) {
	return nil, nil, f.readErr
}

func TestSynopTransformer_StoreErrors(t *testing.T) {
	card := domain.ObservationCard{
		Kind:           domain.CardMeteorological,
		StationNumber:  "41953",
		ObservedAt:     slot,
		Meteorological: &domain.MeteorologicalReading{},
	}

	t.Run("save", func(t *testing.T) {
		tfm := pipeline.NewTransformer(&failingStore{saveErr: errors.New("database is locked")}, slog.Default())
		_, err := tfm.Accept(context.Background(), card)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store meteorological card")
		assert.NotErrorIs(t, err, domain.ErrObservationNotFound)
		assert.NotErrorIs(t, err, domain.ErrInvalidCard, "store failures are retried, not dropped")
	})

	t.Run("read", func(t *testing.T) {
		tfm := pipeline.NewTransformer(&failingStore{readErr: errors.New("disk I/O error")}, slog.Default())
		_, err := tfm.Accept(context.Background(), card)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk I/O error")
	})
}
