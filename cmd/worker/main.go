// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tochcoin-wallet/internal/audit"
	"tochcoin-wallet/internal/config"
	"tochcoin-wallet/internal/util"
)

// The worker copies every committed ledger event from RabbitMQ into the MongoDB audit trail.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		util.GetLogger().Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)
	logger := util.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Audit worker failed", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("Audit worker stopped.")
}

// run returns nil only when ctx is cancelled; every deferred close has run by the time it returns.
func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required for the audit worker")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = client.Ping(pingCtx, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("MongoDB connection established.", "database", cfg.MongoDB)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	defer ch.Close()

	msgs, err := audit.Subscribe(ch, cfg.LedgerExchange)
	if err != nil {
		return fmt.Errorf("failed to subscribe to ledger events: %w", err)
	}

	consumer := audit.NewConsumer(audit.NewMongoRepository(client, cfg.MongoDB), logger, 5*time.Second)
	logger.Info("Audit worker started.", "exchange", cfg.LedgerExchange, "queue", audit.QueueName)
	return consumer.Run(ctx, msgs)
}
