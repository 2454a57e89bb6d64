package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"global-app/internal/config"
	"global-app/internal/logger"
)

// MessageProducer sends raw messages to a topic without waiting for the broker.
type MessageProducer interface {
	// Produce enqueues one message. onDelivery, if not nil, is called from the
	// producer's delivery goroutine with the broker's verdict.
	Produce(topic string, key []byte, payload []byte, onDelivery func(error)) error
	Close()
}

type confluentKafkaProducer struct {
	producer *kafka.Producer
	cfg      config.KafkaConfig
	done     chan struct{}
}

// NewConfluentKafkaProducer creates a producer for the configured brokers and
// starts the goroutine that drains its delivery reports.
func NewConfluentKafkaProducer(cfg config.KafkaConfig) (MessageProducer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":         strings.Join(cfg.Brokers, ","),
		"security.protocol":         cfg.Protocol,
		"acks":                      "all",
		"go.delivery.report.fields": "key",
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	cp := &confluentKafkaProducer{producer: p, cfg: cfg, done: make(chan struct{})}
	go cp.handleDeliveries()
	return cp, nil
}

// Produce hands the message to librdkafka's local queue and returns. It only
// fails when the message cannot be enqueued, e.g. the queue is full.
func (p *confluentKafkaProducer) Produce(topic string, key []byte, payload []byte, onDelivery func(error)) error {
	kafkaMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          payload,
		Timestamp:      time.Now(),
	}
	if onDelivery != nil {
		kafkaMsg.Opaque = onDelivery
	}
	if err := p.producer.Produce(kafkaMsg, nil); err != nil {
		return fmt.Errorf("kafka producer failed to enqueue message for topic %s: %w", topic, err)
	}
	return nil
}

// handleDeliveries runs until the producer is closed.
func (p *confluentKafkaProducer) handleDeliveries() {
	defer close(p.done)
	log := logger.L()
	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			err := e.TopicPartition.Error
			if cb, ok := e.Opaque.(func(error)); ok {
				cb(err)
			} else if err != nil {
				log.Warn("kafka delivery failed", zap.String("topic", *e.TopicPartition.Topic), zap.Error(err))
			}
		case kafka.Error:
			log.Error("kafka producer error",
				zap.Error(e),
				zap.Int("code", int(e.Code())),
				zap.Bool("fatal", e.IsFatal()))
		}
	}
}

// Close flushes outstanding messages for up to 15 seconds and releases the producer.
func (p *confluentKafkaProducer) Close() {
	if p.producer == nil {
		return
	}
	log := logger.L()
	if remaining := p.producer.Flush(15 * 1000); remaining > 0 {
		log.Warn("kafka producer closing with undelivered messages", zap.Int("remaining", remaining))
	}
	p.producer.Close()
	<-p.done
	log.Info("kafka producer closed")
}
