package notify

import (
	"context"
	"encoding/json"
	"fmt"

	account "github.com/appquarium/go-account"
	"github.com/appquarium/go-account/activitymap"
	"github.com/segmentio/kafka-go"
)

// KafkaActivitySink publishes normalized activity records to a Kafka topic
type KafkaActivitySink struct {
	writer MessageWriter
	opts   []activitymap.Option
}

var _ account.ActivitySink = (*KafkaActivitySink)(nil)

// NewKafkaActivitySink returns a sink writing to topic on brokers
func NewKafkaActivitySink(brokers []string, topic string, opts ...activitymap.Option) *KafkaActivitySink {
	return NewKafkaActivitySinkWithWriter(newWriter(brokers, topic), opts...)
}

// NewKafkaActivitySinkWithWriter wraps an existing writer
func NewKafkaActivitySinkWithWriter(writer MessageWriter, opts ...activitymap.Option) *KafkaActivitySink {
	return &KafkaActivitySink{writer: writer, opts: opts}
}

// Record implements account.ActivitySink. Records are keyed by actor so a
// user's activity stays ordered within a partition.
func (s *KafkaActivitySink) Record(ctx context.Context, event account.ActivityEvent) error {
	record := activitymap.Normalize(event, s.opts...)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(record.ActorID),
		Value: data,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish activity failed: %w", err)
	}

	return nil
}

// Close flushes and closes the writer
func (s *KafkaActivitySink) Close() error {
	return s.writer.Close()
}
