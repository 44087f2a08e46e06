// internal/notify/amqp.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"tochcoin-wallet/internal/domain"
)

// Routing keys on the ledger exchange.
const (
	RoutingTransactionCreated = "transaction.created"
	RoutingRewardGranted      = "reward.granted"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes ledger events and reward notices to a topic exchange.
type AMQPNotifier struct {
	channel  Channel
	exchange string
	logger   *slog.Logger
}

// NewAMQPNotifier creates a notifier publishing to exchange over ch.
func NewAMQPNotifier(ch Channel, exchange string, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{channel: ch, exchange: exchange, logger: logger}
}

// DeclareExchange makes sure the durable topic exchange exists.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

func (n *AMQPNotifier) LedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	return n.publish(ctx, RoutingTransactionCreated, event.EventID, event)
}

func (n *AMQPNotifier) Reward(ctx context.Context, notice domain.RewardNotice) error {
	return n.publish(ctx, RoutingRewardGranted, "", notice)
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey, messageID string, body interface{}) error {
	bytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}

	err = n.channel.PublishWithContext(ctx, n.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		Body:         bytes,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	n.logger.Debug("message published", "exchange", n.exchange, "routing_key", routingKey)
	return nil
}
