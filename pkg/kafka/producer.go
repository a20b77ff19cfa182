package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/sage/config"
)

// Producer publishes messages to kafka with batching and compression
type Producer struct {
	writer *kafkago.Writer
	logger ectologger.Logger
}

// NewProducer builds a shared writer; the topic is chosen per message
func NewProducer(cfg *config.Config, logger ectologger.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:               &kafkago.Hash{},
		BatchSize:              cfg.KafkaBatchSize,
		BatchTimeout:           time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks:           kafkago.RequiredAcks(cfg.KafkaRequiredAcks),
		Compression:            parseCompression(cfg.KafkaCompression),
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// Publish JSON-encodes the value and writes it to the topic. Messages with
// the same key land on the same partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", topic, err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": topic,
		"key":   key,
	}).Debug("published message")

	return nil
}

// Close flushes pending batches and releases the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

func parseCompression(name string) kafkago.Compression {
	switch name {
	case "gzip":
		return kafkago.Gzip
	case "snappy":
		return kafkago.Snappy
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	}
	return 0
}
