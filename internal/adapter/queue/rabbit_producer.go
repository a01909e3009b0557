package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

const (
	ExchangeName = "checkout.events"
	RoutingKey   = "order.intent.submitted"
	QueueName    = "order.intent.q"
)

// RabbitProducer implements usecase.IntentPublisher
type RabbitProducer struct {
	ch *amqp.Channel
}

// Declare sets up the exchange, queue, and binding. Both the API and the
// ledger worker call it so either can start first.
func Declare(ch *amqp.Channel) error {
	// 1. declare exchange (topic type, durable)
	if err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// 2. declare queue
	q, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// 3. bind queue → exchange
	if err := ch.QueueBind(q.Name, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func NewRabbitProducer(ch *amqp.Channel) (*RabbitProducer, error) {
	if err := Declare(ch); err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	return &RabbitProducer{ch: ch}, nil
}

// PublishSubmitted sends an "order.intent.submitted" event and waits for
// the broker to confirm it.
func (p *RabbitProducer) PublishSubmitted(ctx context.Context, msg usecase.OrderIntentSubmittedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    msg.OrderID,
		Timestamp:    msg.SubmittedAt,
		Body:         body,
	}

	conf, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, RoutingKey, false, false, pub)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm: %w", err)
	}
	if !ok {
		return fmt.Errorf("broker nacked order intent %s", msg.OrderID)
	}
	return nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSubmitted(context.Context, usecase.OrderIntentSubmittedMsg) error {
	return nil
}

var (
	_ usecase.IntentPublisher = (*RabbitProducer)(nil)
	_ usecase.IntentPublisher = NopPublisher{}
)
