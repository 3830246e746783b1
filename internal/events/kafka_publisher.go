package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Brokers           []string
	ClientID          string
	Acks              string
	Retries           int
	TopicMovements    string
	TopicReservations string
	TopicCatalog      string
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer   sarama.SyncProducer
	logger     *zap.Logger
	config     KafkaConfig
	maxRetries int
	baseDelay  time.Duration
}

// NewKafkaEventPublisher creates an idempotent sync producer for the configured brokers.
func NewKafkaEventPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaEventPublisher, error) {
	config := sarama.NewConfig()
	config.ClientID = cfg.ClientID
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = cfg.Retries
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	switch cfg.Acks {
	case "0":
		config.Producer.RequiredAcks = sarama.NoResponse
	case "1":
		config.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		config.Producer.RequiredAcks = sarama.WaitForAll
	}
	if config.Producer.RequiredAcks != sarama.WaitForAll {
		// sarama rejects idempotence without acks=all
		config.Producer.Idempotent = false
		config.Net.MaxOpenRequests = 5
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaEventPublisherWithProducer(producer, cfg, logger), nil
}

// NewKafkaEventPublisherWithProducer wraps an existing producer.
func NewKafkaEventPublisherWithProducer(producer sarama.SyncProducer, cfg KafkaConfig, logger *zap.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer:   producer,
		logger:     logger,
		config:     cfg,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
	}
}

// Publish sends the event with bounded retries and exponential backoff.
func (p *KafkaEventPublisher) Publish(ctx context.Context, event Event) error {
	topic, err := p.topicFor(event)
	if err != nil {
		return fmt.Errorf("failed to determine topic: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.EventType())},
			{Key: []byte("event-id"), Value: []byte(uuid.New().String())},
			{Key: []byte("timestamp"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}

	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		partition, offset, err := p.producer.SendMessage(message)
		if err == nil {
			p.logger.Debug("Event published to Kafka",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Int64("offset", offset),
				zap.String("event-type", event.EventType()),
				zap.Int("attempt", attempt+1),
			)
			return nil
		}
		lastErr = err

		p.logger.Warn("Failed to publish event to Kafka, retrying",
			zap.String("topic", topic),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", p.maxRetries),
		)

		if attempt < p.maxRetries-1 {
			delay := p.baseDelay * time.Duration(1<<uint(attempt)) // 100ms, 200ms, 400ms
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("failed to publish event to Kafka after %d attempts: %w", p.maxRetries, lastErr)
}

// Close closes the Kafka producer
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) topicFor(event Event) (string, error) {
	switch event.(type) {
	case StockMovementRecorded, *StockMovementRecorded:
		return p.config.TopicMovements, nil
	case ReservationChanged, *ReservationChanged:
		return p.config.TopicReservations, nil
	case CatalogChanged, *CatalogChanged:
		return p.config.TopicCatalog, nil
	default:
		return "", fmt.Errorf("unknown event type: %T", event)
	}
}
