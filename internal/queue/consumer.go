package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/nurpe/rentals/internal/model"
)

const maxBackoff = 30 * time.Second

// Handler processes one contract event. A returned error rejects the
// delivery without requeueing it.
type Handler func(ctx context.Context, event model.ContractEvent) error

type Consumer struct {
	url     string
	queue   string
	handler Handler
	log     zerolog.Logger
}

func NewConsumer(url, queue string, handler Handler, log zerolog.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, handler: handler, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set qos failed")
	}
	if err := declare(ch, c.queue); err != nil {
		return err
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.log.Info().Str("queue", c.queue).Msg("consuming contract events")
	for d := range deliveries {
		if err := c.handle(ctx, d.Body); err != nil {
			c.log.Error().Err(err).Str("message_id", d.MessageId).Msg("handle contract event failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var event model.ContractEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.handler(ctx, event)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
