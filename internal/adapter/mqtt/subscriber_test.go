package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/synop-etl/internal/config"
	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherCard = `{
	"kind": "weather",
	"station_number": "41953",
	"observed_at": "2024-04-26T06:20:00Z",
	"weather": {"total_cloud_amount": "5", "wind_direction": "90", "wind_speed": "15"}
}`

func newTestSubscriber(t *testing.T, handler CardHandler) (*Subscriber, *observability.Metrics) {
	t.Helper()
	cfg := &config.Config{
		MQTTBroker:   "tcp://127.0.0.1:1883",
		MQTTClientID: "synop-etl-test",
		MQTTTopic:    "synop/+/cards",
	}
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSubscriber(cfg, handler, logger, metrics), metrics
}

func TestHandleMessage_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		payload  string
		complete bool
		err      error
		want     string
	}{
		{name: "completes pair", topic: "synop/41953/cards", payload: weatherCard, complete: true, want: outcomeAccepted},
		{name: "waits for partner", topic: "synop/41953/cards", payload: weatherCard, want: outcomePending},
		{name: "handler failure", topic: "synop/41953/cards", payload: weatherCard, err: errors.New("database is locked"), want: outcomeError},
		{name: "malformed json", topic: "synop/41953/cards", payload: `{"kind":`, want: outcomeRejected},
		{name: "unknown kind", topic: "synop/41953/cards", payload: `{"kind":"radar","station_number":"41953"}`, want: outcomeRejected},
		{name: "topic station mismatch", topic: "synop/96749/cards", payload: weatherCard, want: outcomeRejected},
		{name: "topic without station", topic: "synop/all/cards", payload: weatherCard, complete: true, want: outcomeAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []domain.ObservationCard
			s, metrics := newTestSubscriber(t, func(_ context.Context, card domain.ObservationCard) (bool, error) {
				got = append(got, card)
				return tt.complete, tt.err
			})

			outcome := s.handleMessage(tt.topic, []byte(tt.payload))

			assert.Equal(t, tt.want, outcome)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MQTTMessages.WithLabelValues(tt.want)))
			if tt.want == outcomeRejected {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, "41953", got[0].StationNumber)
			assert.Equal(t, domain.CardWeather, got[0].Kind)
		})
	}
}

func TestCheckTopicStation(t *testing.T) {
	assert.NoError(t, checkTopicStation("synop/41953/cards", "41953"))
	assert.NoError(t, checkTopicStation("synop/1234/cards", "01234"))
	assert.NoError(t, checkTopicStation("cards", "41953"))
	assert.ErrorIs(t, checkTopicStation("synop/96749/cards", "41953"), domain.ErrInvalidCard)
}

func TestSubscriber_NotConnectedUntilConnect(t *testing.T) {
	s, _ := newTestSubscriber(t, func(context.Context, domain.ObservationCard) (bool, error) { return false, nil })
	assert.False(t, s.IsConnected())

	s.Disconnect()
	s.Disconnect()
	assert.Error(t, s.Connect(context.Background()), "connect after disconnect")
}
