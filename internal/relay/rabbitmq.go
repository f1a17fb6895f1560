package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/broadcast"
	amqp "github.com/rabbitmq/amqp091-go"
)

const dialAttempts = 5

// RabbitMQ publishes every event to a durable topic exchange, routed by event name.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

func NewRabbitMQ(ctx context.Context, url, exchange string, logger *slog.Logger) (*RabbitMQ, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		wait := time.Duration(i+1) * time.Second
		logger.Warn("rabbitmq dial failed, retrying", "attempt", i+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq after %d attempts: %w", dialAttempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &RabbitMQ{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// WriteMessage publishes msg. Broker failures are logged and swallowed so the
// hub keeps the relay registered.
func (r *RabbitMQ) WriteMessage(ctx context.Context, msg []byte) error {
	event := eventName(msg)
	err := r.ch.PublishWithContext(ctx,
		r.exchange,
		routingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         event,
			Body:         msg,
		},
	)
	if err != nil {
		r.logger.Error("rabbitmq publish", "event", event, "error", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if err := r.ch.Close(); err != nil && !r.conn.IsClosed() {
		r.logger.Warn("close rabbitmq channel", "error", err)
	}
	return r.conn.Close()
}

// Durable keeps the relay registered while the broker is slow.
func (r *RabbitMQ) Durable() {}

var _ broadcast.Durable = (*RabbitMQ)(nil)
