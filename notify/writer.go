package notify

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// BatchTimeout bounds how long a publish waits for a batch to fill.
// Publishes run on the request path and carry a single message.
const BatchTimeout = 10 * time.Millisecond

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           BatchTimeout,
		AllowAutoTopicCreation: true,
	}
}
