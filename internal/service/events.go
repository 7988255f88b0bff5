package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/queue"
)

// EventPublisher delivers booking events after commit.  Publishing is best
// effort: a failure is logged by the caller and never undoes the booking.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

// RabbitPublisher publishes events to a durable topic exchange using the
// event type as routing key.  The connection is opened lazily and reopened
// after the broker drops it.
type RabbitPublisher struct {
	url      string
	exchange string
	log      *zap.Logger

	// sem guards conn and ch.  Waiting for it is bounded by the
	// publisher's ctx.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher returns a publisher for exchange on the broker at url.
// No connection is made until the first Publish.
func NewRabbitPublisher(url, exchange string, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{url: url, exchange: exchange, log: log, sem: make(chan struct{}, 1)}
}

const defaultDialTimeout = 5 * time.Second

// dialTimeout is the time left before ctx expires, or defaultDialTimeout
// when ctx has no deadline.
func dialTimeout(ctx context.Context) time.Duration {
	d := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
	}
	return max(d, time.Millisecond)
}

func (p *RabbitPublisher) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "rabbitmq: waiting for connection")
	}
}

func (p *RabbitPublisher) release() { <-p.sem }

// channel returns an open channel, dialing when needed.  The dial is
// bounded by ctx.  Caller holds sem.
func (p *RabbitPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.DialConfig(p.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(dialTimeout(ctx)),
		})
		if err != nil {
			return nil, errors.Wrap(err, "rabbitmq: dial")
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq: open channel")
	}
	// Durable so bindings survive broker restarts.
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, "rabbitmq: exchange declare")
	}
	p.ch = ch
	return ch, nil
}

// Publish sends ev as a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "rabbitmq: marshal event")
	}

	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, pub); err != nil {
		// force a fresh channel next time
		_ = ch.Close()
		p.ch = nil
		return errors.Wrap(err, "rabbitmq: publish")
	}
	p.log.Debug("event published", zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID))
	return nil
}

// Close releases the broker connection.
func (p *RabbitPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.release()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
