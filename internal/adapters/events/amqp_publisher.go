package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
)

// amqpChannel is the part of *amqp.Channel the publisher needs
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher sends booking events to a topic exchange, routed by event type
type AMQPPublisher struct {
	ch       amqpChannel
	exchange string
}

// NewAMQPPublisher creates a publisher on an already declared exchange
func NewAMQPPublisher(ch amqpChannel, exchange string) providers.EventPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

// PublishBookingEvent publishes event with its type as routing key
func (p *AMQPPublisher) PublishBookingEvent(ctx context.Context, event *entities.BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Type:         string(event.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, p.exchange, err)
	}
	return nil
}
