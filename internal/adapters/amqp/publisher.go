// Package amqpad publishes booking lifecycle events to RabbitMQ.
package amqpad

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"travel_companion/internal/adapters/observability"
	"travel_companion/internal/domain"
)

const (
	DefaultQueue = "booking.events"

	// DefaultDialTimeout bounds the TCP connect and the AMQP handshake.
	DefaultDialTimeout = 2 * time.Second
)

// Publisher dials per publish; booking volume does not justify holding a
// channel open across requests.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
}

func New(url, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{url: url, queue: queue, dialTimeout: DefaultDialTimeout}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.BookingEvent) (err error) {
	defer func() { observability.ObserveEvent(ev.Kind, err) }()

	msg, err := message(&ev)
	if err != nil {
		return err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable: events survive a broker restart
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare %s: %w", p.queue, err)
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	log.Debug().Str("event_id", ev.ID).Str("kind", ev.Kind).Int64("booking_id", ev.BookingID).Msg("event published")
	return nil
}

// dial connects with a deadline of dialTimeout or the context deadline,
// whichever comes first. The deadline covers the handshake; amqp091 clears it
// once the connection is open.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	deadline := time.Now().Add(p.dialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Deadline: deadline}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}

// message stamps ev with an id when it has none and builds the persistent
// JSON publishing for it.
func message(ev *domain.BookingEvent) (amqp.Publishing, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Kind,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}, nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
