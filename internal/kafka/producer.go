package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/pkg/logger"
)

// Topics for subscription lifecycle events published after each state
// transition the service applies.
const (
	TopicSubscriptionCreated   = "subscription_created"
	TopicSubscriptionCharged   = "subscription_charged"
	TopicSubscriptionActivated = "subscription_activated"
	TopicSubscriptionCancelled = "subscription_cancelled"
)

// Producer publishes subscription events. The service treats a nil
// Producer as "event publishing disabled".
type Producer interface {
	// PublishSubscriptionEvent sends an event keyed by subscription ID, so
	// all events for one subscription land on the same partition.
	PublishSubscriptionEvent(ctx context.Context, topic string, subscription *models.Subscription) error
	// Close closes the producer connection.
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer creates and configures a Kafka producer.
func NewKafkaProducer(brokers []string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)

	return &kafkaProducer{
		writer: writer,
		log:    log,
	}, nil
}

// PublishSubscriptionEvent marshals the subscription and writes it to the topic.
func (k *kafkaProducer) PublishSubscriptionEvent(ctx context.Context, topic string, subscription *models.Subscription) error {
	messageValue, err := json.Marshal(subscription)
	if err != nil {
		k.log.Errorw("Failed to marshal subscription for Kafka", "error", err, "subscriptionID", subscription.SubscriptionID, "topic", topic)
		return fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(subscription.SubscriptionID),
		Value: messageValue,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			k.log.Errorw("Kafka write timeout exceeded", "error", err, "topic", topic, "subscriptionID", subscription.SubscriptionID)
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		k.log.Errorw("Failed to write message to Kafka", "error", err, "topic", topic, "subscriptionID", subscription.SubscriptionID)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Published subscription event", "topic", topic, "subscriptionID", subscription.SubscriptionID)
	return nil
}

// Close closes the Kafka writer.
func (k *kafkaProducer) Close() error {
	if err := k.writer.Close(); err != nil {
		k.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	k.log.Infow("Kafka producer closed")
	return nil
}
