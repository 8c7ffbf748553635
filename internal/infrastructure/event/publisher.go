package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher delivers a claimed outbox entry to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, entry *shared.OutboxEntry) error
	Close() error
}

// Kafka message headers set on every notification
const (
	HeaderEventType     = "event_type"
	HeaderShopDomain    = "shop_domain"
	HeaderAggregateType = "aggregate_type"
	HeaderEntryID       = "outbox_id"
)

// messageWriter is the subset of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes notifications to a Kafka topic keyed by aggregate id,
// so every notification for one order lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
	}
	return &KafkaPublisher{writer: writer}
}

// Publish writes the entry as one Kafka message
func (p *KafkaPublisher) Publish(ctx context.Context, entry *shared.OutboxEntry) error {
	msg := kafka.Message{
		Key:   []byte(entry.AggregateID.String()),
		Value: entry.Payload,
		Time:  entry.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(entry.EventType)},
			{Key: HeaderShopDomain, Value: []byte(entry.ShopDomain)},
			{Key: HeaderAggregateType, Value: []byte(entry.AggregateType)},
			{Key: HeaderEntryID, Value: []byte(entry.ID.String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs notifications instead of delivering them. It is used
// when no brokers are configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the notification
func (p *LogPublisher) Publish(_ context.Context, entry *shared.OutboxEntry) error {
	p.logger.Info("Order notification",
		zap.String("event_type", entry.EventType),
		zap.String("shop_domain", entry.ShopDomain),
		zap.String("aggregate_type", entry.AggregateType),
		zap.String("aggregate_id", entry.AggregateID.String()),
		zap.ByteString("payload", entry.Payload),
	)
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error {
	return nil
}

// NewPublisher picks the Kafka publisher when brokers are configured
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) Publisher {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		logger.Info("Kafka not configured, notifications will be logged")
		return NewLogPublisher(logger)
	}
	logger.Info("Publishing notifications to Kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return NewKafkaPublisher(cfg)
}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
