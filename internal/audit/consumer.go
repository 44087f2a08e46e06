// internal/audit/consumer.go
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tochcoin-wallet/internal/domain"
)

const (
	QueueName   = "ledger_audit"
	BindingKey  = "transaction.#"
	consumerTag = "audit_worker"
)

// ErrDeliveriesClosed is returned by Run when the broker closes the delivery channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Saver persists one ledger event.
type Saver interface {
	Save(ctx context.Context, event domain.LedgerEvent) error
}

// Consumer copies ledger events from the broker into the audit store.
type Consumer struct {
	store   Saver
	logger  *slog.Logger
	timeout time.Duration
}

func NewConsumer(store Saver, logger *slog.Logger, timeout time.Duration) *Consumer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Consumer{store: store, logger: logger, timeout: timeout}
}

// Subscribe declares the exchange, the audit queue and its binding, and starts a manual-ack
// consumer that receives one message at a time.
func Subscribe(ch *amqp.Channel, exchange string) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, BindingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := ch.Consume(q.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle stores one delivery. Malformed messages are dropped; storage failures are requeued.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	var event domain.LedgerEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.EventID == "" {
		c.logger.Warn("dropping malformed ledger event", "routing_key", d.RoutingKey, "error", err)
		if err := d.Nack(false, false); err != nil {
			c.logger.Error("failed to nack message", "error", err)
		}
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.store.Save(saveCtx, event); err != nil {
		c.logger.Error("failed to store audit record", "event_id", event.EventID, "error", err)
		if err := d.Nack(false, true); err != nil {
			c.logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
		return
	}
	c.logger.Debug("audit record stored", "event_id", event.EventID, "user_id", event.UserID)
}
