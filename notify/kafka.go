package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	account "github.com/appquarium/go-account"
	"github.com/segmentio/kafka-go"
)

const (
	// EventUserRegistered is the event type of registration messages
	EventUserRegistered = "user_registered"

	publishTimeout = 5 * time.Second
)

// MessageWriter is the subset of *kafka.Writer used by the notifier
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RegistrationEvent is the message value published for every new user.
// Mail delivery of the activation link is left to the topic consumers.
type RegistrationEvent struct {
	Type            string    `json:"type"`
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	ActivationToken string    `json:"activation_token"`
	ActivationPath  string    `json:"activation_path"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// KafkaNotifier publishes registration notices to a Kafka topic
type KafkaNotifier struct {
	writer MessageWriter
}

var _ account.Notifier = (*KafkaNotifier)(nil)

// NewKafkaNotifier returns a notifier writing to topic on brokers
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return NewKafkaNotifierWithWriter(newWriter(brokers, topic))
}

// NewKafkaNotifierWithWriter wraps an existing writer
func NewKafkaNotifierWithWriter(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// NotifyRegistration implements account.Notifier
func (n *KafkaNotifier) NotifyRegistration(ctx context.Context, notice account.RegistrationNotice) error {
	event := RegistrationEvent{
		Type:            EventUserRegistered,
		UserID:          notice.UserID,
		Username:        notice.Username,
		Email:           notice.Email,
		ActivationToken: notice.ActivationToken,
		ActivationPath:  "/api/users/activate/" + notice.ActivationToken,
		ExpiresAt:       notice.ExpiresAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(notice.UserID, 10)),
		Value: data,
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish failed: %w", err)
	}

	return nil
}

// Close flushes and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
