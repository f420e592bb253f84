package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/sketchly/billing-service/pkg/logger"
)

// EnsureKafkaTopics verifies the lifecycle topics exist, creating any that
// are missing. Called once at startup when a broker is configured.
func EnsureKafkaTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := []kafkaGo.TopicConfig{
		{Topic: TopicSubscriptionCreated, NumPartitions: 3, ReplicationFactor: 1},
		{Topic: TopicSubscriptionCharged, NumPartitions: 3, ReplicationFactor: 1},
		{Topic: TopicSubscriptionActivated, NumPartitions: 1, ReplicationFactor: 1},
		{Topic: TopicSubscriptionCancelled, NumPartitions: 1, ReplicationFactor: 1},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		log.Errorw("Kafka broker address is empty")
		return errors.New("kafka broker address is empty")
	}

	connCtx, cancelConn := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelConn()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		log.Errorw("Failed to connect to Kafka broker for topic creation", "broker", brokers[0], "error", err)
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		log.Errorw("Failed to read partitions from Kafka", "error", err)
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existingTopics := make(map[string]bool)
	for _, p := range partitions {
		existingTopics[p.Topic] = true
	}

	var topicsToCreate []kafkaGo.TopicConfig
	for _, config := range requiredTopics {
		if !existingTopics[config.Topic] {
			topicsToCreate = append(topicsToCreate, config)
		}
	}

	if len(topicsToCreate) == 0 {
		log.Infow("All required Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(topicsToCreate...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warnw("Topics already existed during creation attempt")
			return nil
		}
		log.Errorw("Failed to create Kafka topics", "error", err)
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Infow("Kafka topics created", "count", len(topicsToCreate))
	return nil
}
