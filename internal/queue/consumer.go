package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/config"
)

// Handler processes one decoded event.  Returning an error rejects the
// delivery without requeueing it.
type Handler func(ctx context.Context, ev BookingEvent) error

// Consumer binds a durable queue to the booking events exchange and feeds
// every delivery to a Handler, reconnecting with backoff when the broker
// goes away.
type Consumer struct {
	cfg    config.EventsConfig
	handle Handler
	log    *zap.Logger
}

// NewConsumer returns a consumer for cfg.Queue on cfg.Exchange.
func NewConsumer(cfg config.EventsConfig, handle Handler, log *zap.Logger) *Consumer {
	return &Consumer{cfg: cfg, handle: handle, log: log}
}

// Run consumes until ctx is cancelled.  It only returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("booking-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("booking-consumer: set QoS failed", zap.Error(err))
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(c.cfg.Queue, "booking.*", c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info("booking-consumer: consuming", zap.String("queue", c.cfg.Queue), zap.String("exchange", c.cfg.Exchange))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.dispatch(ctx, d.Body); err != nil {
				c.log.Warn("booking-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ProductID == 0 {
		return errors.New("event without product_id")
	}
	return c.handle(ctx, ev)
}

// ProductCacheHandler returns a Handler that drops the cached product view
// touched by each event.  pathOf maps a product id to the path its view is
// cached under.
func ProductCacheHandler(pathOf func(productID uint64) string, invalidate func(ctx context.Context, path string) (int, error), log *zap.Logger) Handler {
	return func(ctx context.Context, ev BookingEvent) error {
		path := pathOf(ev.ProductID)
		n, err := invalidate(ctx, path)
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", path, err)
		}
		log.Debug("booking-consumer: product cache invalidated",
			zap.String("event", ev.Type), zap.Uint64("product_id", ev.ProductID), zap.Int("keys", n))
		return nil
	}
}

// DirectPublisher runs a Handler in-process for every published event.  It
// stands in for the broker when event publication is disabled.
type DirectPublisher Handler

func (p DirectPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	return p(ctx, ev)
}
