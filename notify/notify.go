// Package notify publishes cycle outcomes to interested downstream systems
// (billing, dashboards, ops tooling). The AMQP notifier pushes confirmed
// order notices onto a RabbitMQ queue; NoopNotifier is the default when no
// broker is configured.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderNotice describes a confirmed energy window order.
type OrderNotice struct {
	RunID         string    `json:"run_id"`
	OrderID       string    `json:"order_id"`
	DecisionCount int       `json:"decision_count"`
	TotalBenefit  float64   `json:"total_benefit"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// Notifier receives cycle outcomes.
type Notifier interface {
	// OrderConfirmed publishes a confirmed order notice.
	OrderConfirmed(ctx context.Context, notice OrderNotice) error
	// Close releases broker resources.
	Close() error
}

// NoopNotifier discards every notice.
type NoopNotifier struct{}

// OrderConfirmed implements Notifier.
func (NoopNotifier) OrderConfirmed(context.Context, OrderNotice) error { return nil }

// Close implements Notifier.
func (NoopNotifier) Close() error { return nil }

// AMQPConfig describes the RabbitMQ connection parameters.
type AMQPConfig struct {
	URL string
	// Queue defaults to "voltmesh.orders".
	Queue   string
	Durable bool
}

// AMQPNotifier publishes order notices to a declared RabbitMQ queue.
type AMQPNotifier struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewAMQPNotifier dials the broker and declares the queue.
func NewAMQPNotifier(cfg AMQPConfig) (*AMQPNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url must not be empty")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "voltmesh.orders"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, cfg.Durable, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, queue: queue}, nil
}

// OrderConfirmed implements Notifier.
func (n *AMQPNotifier) OrderConfirmed(ctx context.Context, notice OrderNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode order notice: %w", err)
	}
	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("publish order notice: %w", err)
	}
	return nil
}

// Close implements Notifier.
func (n *AMQPNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}

var (
	_ Notifier = NoopNotifier{}
	_ Notifier = (*AMQPNotifier)(nil)
)
