package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flight-delay-etl/internal/config"
	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// Writer produces one message per cleaned flight row.
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
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes a chunk of rows in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, rows []domain.CleanedFlightRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("kafka chunk written", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a row into a message keyed by its
// deterministic ID, so replays land on the same partition.
func serializeToMessage(row domain.CleanedFlightRow) (kafkago.Message, error) {
	data, err := json.Marshal(row.Values())
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flight row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.ID()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "flight_date", Value: []byte(domain.FormatDate(row.FlightDate))},
			{Key: "route", Value: []byte(row.Origin + "-" + row.Destination)},
			{Key: "cancelled", Value: []byte(strconv.Itoa(row.Cancelled))},
		},
	}, nil
}
