// Package mq delivers outbox messages to RabbitMQ. Each message is published
// as a JSON envelope onto a single durable queue; consumers route on the
// envelope's topic.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/desk-booking/internal/persistence"
)

// Envelope is the wire format for published notifications. Payload carries
// the topic specific JSON document produced by the application layer.
type Envelope struct {
	MessageID   string          `json:"message_id"`
	Topic       string          `json:"topic"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt string          `json:"published_at"`
}

// Publisher pushes envelopes onto a durable RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	now     func() time.Time
}

// NewPublisher dials the broker and declares the destination queue. The
// returned publisher must be closed by the caller.
func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mq: failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mq: failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("mq: failed to declare queue %q: %w", queue, err)
	}

	return &Publisher{conn: conn, channel: channel, queue: queue, now: time.Now}, nil
}

// Publish delivers one outbox message as a persistent JSON envelope.
func (p *Publisher) Publish(ctx context.Context, message persistence.OutboxMessage) error {
	if p == nil || p.channel == nil {
		return fmt.Errorf("mq: publisher is not connected")
	}

	envelope := Envelope{
		MessageID:   message.ID,
		Topic:       message.Topic,
		Payload:     json.RawMessage(message.Payload),
		PublishedAt: p.now().UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("mq: failed to marshal envelope: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    message.ID,
			Type:         message.Topic,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("mq: failed to publish message %s: %w", message.ID, err)
	}
	return nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
