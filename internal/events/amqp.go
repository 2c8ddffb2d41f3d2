// Package events publishes order lifecycle events to RabbitMQ so kitchen
// displays and reporting consumers can react without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/order"
)

const ordersQueue = "pos.orders"

var _ order.EventPublisher = (*Publisher)(nil)

// Publisher emits order events onto a durable RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher dials RabbitMQ and declares the orders queue.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	_, err = channel.QueueDeclare(ordersQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %q: %w", ordersQueue, err)
	}

	return &Publisher{conn: conn, channel: channel}, nil
}

// orderEvent is the wire shape for every order lifecycle message.
type orderEvent struct {
	Event       string          `json:"event"`
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Type        order.Type      `json:"order_type"`
	Status      order.Status    `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Items       []order.Item    `json:"items"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// OrderCreated publishes an order.created event.
func (p *Publisher) OrderCreated(ctx context.Context, o *order.Order) error {
	return p.publish(ctx, "order.created", o)
}

// OrderCompleted publishes an order.completed event.
func (p *Publisher) OrderCompleted(ctx context.Context, o *order.Order) error {
	return p.publish(ctx, "order.completed", o)
}

func (p *Publisher) publish(ctx context.Context, event string, o *order.Order) error {
	body, err := json.Marshal(orderEvent{
		Event:       event,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Type:        o.Type,
		Status:      o.Status,
		Total:       o.Total,
		Items:       o.Items,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event, err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		ordersQueue, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", event, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
