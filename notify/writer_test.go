package notify

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriters_UseShortBatchTimeout(t *testing.T) {
	writers := map[string]MessageWriter{
		"notifier": NewKafkaNotifier([]string{"localhost:9092"}, "user_events").writer,
		"activity": NewKafkaActivitySink([]string{"localhost:9092"}, "account_activity").writer,
	}

	for name, w := range writers {
		t.Run(name, func(t *testing.T) {
			kw, ok := w.(*kafka.Writer)
			require.True(t, ok)
			assert.Equal(t, BatchTimeout, kw.BatchTimeout)
			assert.False(t, kw.Async)
			assert.Equal(t, "localhost:9092", kw.Addr.String())
		})
	}
}
