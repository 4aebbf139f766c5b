package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/synop-etl/internal/config"
	"github.com/couchcryptid/synop-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces synoptic reports to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the reports in a single WriteMessages call. Reports are
// keyed by station so a station's reports stay on one partition.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.SynopticReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("reports published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SynopticReport into a Kafka message.
func serializeToMessage(report domain.SynopticReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize synoptic report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.StationNumber),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(report.StationNumber)},
			{Key: "observing_time", Value: []byte(report.ObservingTime.Format(time.RFC3339))},
			{Key: "processed_at", Value: []byte(domain.Now().Format(time.RFC3339))},
		},
	}, nil
}
