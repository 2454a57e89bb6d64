package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"global-app/internal/config"
	"global-app/internal/logger"
)

// MessageHandler processes one consumed message. A nil return commits the offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer consumes topics with a consumer group until ctx is done.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer returns a consumer; the underlying client is created by Consume.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("kafka consumer: no brokers configured")
	}
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// Consume blocks until ctx is canceled or a fatal broker error occurs.
// Offsets are committed manually after the handler succeeds.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID
	log := logger.L().With(zap.String("group", groupID))

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}
	log.Info("kafka consumer started", zap.Strings("topics", topics))

	for {
		select {
		case <-ctx.Done():
			log.Info("kafka consumer stopping", zap.Error(ctx.Err()))
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			fields := []zap.Field{
				zap.String("topic", *e.TopicPartition.Topic),
				zap.Int32("partition", e.TopicPartition.Partition),
				zap.String("offset", e.TopicPartition.Offset.String()),
			}
			if err := handler(ctx, e); err != nil {
				log.Error("kafka message handling failed", append(fields, zap.Error(err))...)
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.Warn("kafka offset commit failed", append(fields, zap.Error(err))...)
			}
		case kafka.Error:
			log.Error("kafka consumer error",
				zap.Error(e),
				zap.Int("code", int(e.Code())),
				zap.Bool("fatal", e.IsFatal()),
				zap.Bool("retriable", e.IsRetriable()))
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Info("kafka partitions assigned", zap.Int("count", len(e.Partitions)))
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Info("kafka partitions revoked", zap.Int("count", len(e.Partitions)))
			_ = c.consumer.Unassign()
		}
	}
}

// Close closes the underlying client if Consume created one.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	log := logger.L().With(zap.String("group", c.groupID))
	if err := c.consumer.Close(); err != nil {
		log.Error("kafka consumer close failed", zap.Error(err))
	} else {
		log.Info("kafka consumer closed")
	}
	c.consumer = nil
}
