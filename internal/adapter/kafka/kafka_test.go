package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("41953"),
		Value:     []byte(`{"kind":"weather","station_number":"41953"}`),
		Topic:     "raw-observation-cards",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("field-terminal")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("41953"), raw.Key)
	assert.JSONEq(t, `{"kind":"weather","station_number":"41953"}`, string(raw.Value))
	assert.Equal(t, "raw-observation-cards", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "field-terminal", raw.Headers["source"])
	assert.Nil(t, raw.Commit, "commit is attached by the reader")
}

func TestSerializeToMessage(t *testing.T) {
	processed := time.Date(2024, 4, 26, 7, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(processed))
	t.Cleanup(func() { domain.SetClock(nil) })

	ot := time.Date(2024, 4, 26, 6, 0, 0, 0, time.UTC)
	report := domain.SynopticReport{
		DataType:      domain.DataTypeSynop,
		StationNumber: "41953",
		Year:          2024,
		Month:         4,
		Day:           26,
		Measurements:  []string{"1", "41953"},
		ObservingTime: ot,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("41953"), msg.Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "SY", decoded["dataType"])
	assert.Equal(t, "41953", decoded["stationNo"])

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "station", msg.Headers[0].Key)
	assert.Equal(t, []byte("41953"), msg.Headers[0].Value)
	assert.Equal(t, "observing_time", msg.Headers[1].Key)
	assert.Equal(t, []byte(ot.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(processed.Format(time.RFC3339)), msg.Headers[2].Value)
}
