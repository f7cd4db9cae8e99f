package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// LogSink writes batches to the process logger. The default sink when
// no brokers are configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, batch []Entry) error {
	for _, entry := range batch {
		s.logger.Info("audit",
			zap.Time("ts", entry.Timestamp),
			zap.String("operation", entry.Operation),
			zap.String("order_id", entry.OrderID),
			zap.String("old_status", string(entry.OldStatus)),
			zap.String("new_status", string(entry.NewStatus)),
			zap.String("remote_addr", entry.RemoteAddr),
		)
	}
	return nil
}

func (s *LogSink) Close() error { return nil }

// KafkaSink publishes one message per entry, keyed by order id so a
// given order's trail lands in one partition.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (s *KafkaSink) Write(ctx context.Context, batch []Entry) error {
	msgs := make([]kafka.Message, 0, len(batch))
	for _, entry := range batch {
		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal audit entry: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(entry.OrderID),
			Value: value,
		})
	}

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish audit batch: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
