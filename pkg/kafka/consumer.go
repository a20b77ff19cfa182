package kafka

import (
	"context"
	"errors"
	"io"

	"github.com/Gobusters/ectologger"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/sage/config"
)

// MessageHandler processes one consumed message. Returning an error leaves
// the offset uncommitted so the message is redelivered.
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer reads the extraction job topic as part of a consumer group
type Consumer struct {
	reader  *kafkago.Reader
	handler MessageHandler
	logger  ectologger.Logger
}

func NewConsumer(cfg *config.Config, handler MessageHandler, logger ectologger.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaExtractionGroup,
		Topic:    cfg.KafkaExtractionTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
	}
}

// Run consumes until the context is canceled. Offsets are committed only
// after the handler succeeds, so processing is at-least-once.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.WithContext(ctx).Info("kafka consumer started")

	for {
		fetched, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		msg := &Message{
			Topic:     fetched.Topic,
			Partition: fetched.Partition,
			Offset:    fetched.Offset,
			Key:       fetched.Key,
			Value:     fetched.Value,
			Time:      fetched.Time,
		}

		if err := c.handler(ctx, msg); err != nil {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Error("message handler failed, offset not committed")
			continue
		}

		if err := c.reader.CommitMessages(ctx, fetched); err != nil {
			c.logger.WithContext(ctx).WithError(err).Error("failed to commit offset")
		}
	}
}

// Close shuts the reader down and leaves the consumer group
func (c *Consumer) Close() error {
	return c.reader.Close()
}
