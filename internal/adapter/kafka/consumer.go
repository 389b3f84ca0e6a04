// Package kafka consumes engagement events from the content store's topic
// and hands them to the event reactor.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/heartmarshall/ranking-backend/internal/config"
)

// Consumer runs one consumer group session loop over the engagement topic.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler sarama.ConsumerGroupHandler
	log     *slog.Logger
}

// NewConsumer connects a consumer group to the configured brokers.
func NewConsumer(cfg config.KafkaConfig, handler sarama.ConsumerGroupHandler, log *slog.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers(), cfg.GroupID, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("kafka: new consumer group: %w", err)
	}
	return newConsumer(group, cfg.Topic, handler, log), nil
}

func newConsumer(group sarama.ConsumerGroup, topic string, handler sarama.ConsumerGroupHandler, log *slog.Logger) *Consumer {
	return &Consumer{group: group, topic: topic, handler: handler, log: log.With("component", "kafka_consumer")}
}

// Run consumes until ctx is cancelled, rejoining the group after every
// rebalance, then closes the group.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.log.Error("consumer group error", slog.String("error", err.Error()))
		}
	}()

	c.log.Info("engagement consumer started", slog.String("topic", c.topic))
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.log.Error("consume", slog.String("error", err.Error()))
		}
		if ctx.Err() != nil {
			break
		}
	}

	c.log.Info("engagement consumer shutting down")
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("kafka: close consumer group: %w", err)
	}
	return nil
}
