package orderbackend

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/notify"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer stores orders published by the storefront. Orders that already
// arrived over HTTP are skipped, so both paths can be enabled at once.
type Consumer struct {
	store  Store
	reader MessageReader
	log    zerolog.Logger
}

func NewConsumer(store Store, topic, groupID string, log zerolog.Logger, brokers ...string) *Consumer {
	if topic == "" {
		topic = notify.DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(store, reader, log)
}

func NewConsumerWithReader(store Store, reader MessageReader, log zerolog.Logger) *Consumer {
	return &Consumer{store: store, reader: reader, log: log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error().Err(err).Msg("error closing kafka reader")
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.log.Error().Err(err).Msg("error reading message")
		return
	}

	if eventType(m) != notify.EventOrderPlaced {
		return
	}

	var order domain.Order
	if err := json.Unmarshal(m.Value, &order); err != nil {
		c.log.Error().Err(err).Str("key", string(m.Key)).Msg("error parsing message")
		return
	}
	if order.ID == "" {
		c.log.Warn().Str("key", string(m.Key)).Msg("order event without id, skipping")
		return
	}

	if err := c.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			c.log.Debug().Str("order_id", order.ID).Msg("order already exists, skipping")
			return
		}
		c.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to store order")
		return
	}
	c.log.Info().Str("order_id", order.ID).Msg("order stored from event")
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
