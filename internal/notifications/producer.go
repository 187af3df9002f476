package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"tickethub/pkg/logger"
)

// LifecycleProducer publishes order lifecycle events to Kafka.
type LifecycleProducer interface {
	PublishOrderLifecycle(ctx context.Context, kind LifecycleKind, orderID, eventID uuid.UUID, status string, totalMinor int64) error
	Close() error
}

type KafkaProducerConfig struct {
	Brokers  []string
	Topic    string
	RetryMax int
	Timeout  time.Duration
}

func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:  []string{"localhost:9092"},
		Topic:    "order-lifecycle",
		RetryMax: 3,
		Timeout:  10 * time.Second,
	}
}

type kafkaLifecycleProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

// NewKafkaLifecycleProducer builds a synchronous, idempotent producer.
// Transitions of an order are hash-partitioned on the order id.
func NewKafkaLifecycleProducer(config *KafkaProducerConfig, log *logger.Logger) (LifecycleProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &kafkaLifecycleProducer{
		producer: producer,
		config:   config,
		log:      log,
	}, nil
}

func (p *kafkaLifecycleProducer) PublishOrderLifecycle(ctx context.Context, kind LifecycleKind, orderID, eventID uuid.UUID, status string, totalMinor int64) error {
	event := &LifecycleEvent{
		ID:         uuid.New(),
		Kind:       kind,
		OrderID:    orderID,
		EventID:    eventID,
		Status:     status,
		TotalMinor: totalMinor,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID.String())},
			{Key: []byte("kind"), Value: []byte(kind)},
			{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}

	p.log.DebugContext(ctx, "lifecycle event published",
		"kind", string(kind),
		"order_id", orderID.String(),
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *kafkaLifecycleProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// NoopProducer satisfies LifecycleProducer when Kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) PublishOrderLifecycle(context.Context, LifecycleKind, uuid.UUID, uuid.UUID, string, int64) error {
	return nil
}

func (NoopProducer) Close() error { return nil }
