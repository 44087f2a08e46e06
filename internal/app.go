// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	router "tochcoin-wallet/internal/api"
	"tochcoin-wallet/internal/api/auth"
	"tochcoin-wallet/internal/api/handler"
	"tochcoin-wallet/internal/api/middleware"
	"tochcoin-wallet/internal/config"
	"tochcoin-wallet/internal/idempotency"
	"tochcoin-wallet/internal/metrics"
	"tochcoin-wallet/internal/notify"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/repository/memory"
	"tochcoin-wallet/internal/repository/postgres"
	"tochcoin-wallet/internal/service"
	"tochcoin-wallet/internal/util"
	"tochcoin-wallet/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	Store  repository.Store

	Verifier *auth.Verifier

	// Services
	WalletService service.WalletService
	RewardService service.RewardService
	Reconciler    *service.Reconciler

	// HTTP API
	HTTPHandler http.Handler

	redis     *redis.Client
	amqpConn  *amqp.Connection
	scheduler gocron.Scheduler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		app.Logger = util.GetLogger()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage", cfg.StorageDriver)

	// 3. Storage
	if err := app.initStore(); err != nil {
		return err
	}

	// 4. Notifications
	notifier, err := app.initNotifier()
	if err != nil {
		return err
	}

	// 5. Initialize Services
	app.WalletService = service.NewWalletService(app.Store, notifier, app.Logger)
	app.RewardService = service.NewRewardService(app.Store, app.WalletService, notifier, service.RewardConfig{
		SignupBonus:         cfg.SignupBonus,
		EventCreationReward: cfg.EventCreationReward,
	}, app.Logger)
	app.Reconciler = service.NewReconciler(app.Store, app.Logger, 0)
	app.Logger.Info("Services initialized.")

	// 6. Background jobs
	if cfg.ReconcileInterval > 0 {
		if err := app.startScheduler(); err != nil {
			return err
		}
	}

	// 7. Initialize HTTP Handlers and Router
	app.Verifier, err = auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}
	deps := router.RouterDeps{
		Wallets:     handler.NewWalletHandler(app.WalletService, app.Logger),
		Profiles:    handler.NewProfileHandler(app.RewardService, app.Logger),
		Events:      handler.NewEventHandler(app.RewardService, app.Logger),
		Verifier:    app.Verifier,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		Health:      app.Store.Ping,
	}
	if cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Idempotency = idempotency.NewCache(app.redis, cfg.IdempotencyTTL)
		app.Logger.Info("Idempotency cache connected.", "addr", cfg.RedisAddr)
	}
	app.HTTPHandler = router.NewRouter(deps, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) initStore() error {
	if app.Config.StorageDriver == config.StorageDriverMemory {
		app.Store = memory.NewStore()
		app.Logger.Warn("Using in-memory storage; data is lost on restart.")
		return nil
	}

	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Logger.Info("Database connection established.")

	if err := db.RunMigrations(database, app.Config.MigrationsPath); err != nil {
		_ = database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Info("Database migrations applied.", "path", app.Config.MigrationsPath)

	txm := db.NewTxManager(database, app.Config.DB.MaxRetries,
		db.WithRetryHook(func(attempt int, err error) {
			metrics.RecordTxRetry()
			app.Logger.Warn("retrying serialization failure", "attempt", attempt, "error", err)
		}),
	)
	app.Store = postgres.NewStore(database, txm)
	return nil
}

func (app *Application) initNotifier() (service.Notifier, error) {
	if app.Config.RabbitMQURL == "" {
		return notify.NewLogNotifier(app.Logger), nil
	}

	conn, err := amqp.Dial(app.Config.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := notify.DeclareExchange(ch, app.Config.LedgerExchange); err != nil {
		_ = conn.Close()
		return nil, err
	}
	app.amqpConn = conn
	app.Logger.Info("Ledger events are published to RabbitMQ.", "exchange", app.Config.LedgerExchange)
	return notify.NewAMQPNotifier(ch, app.Config.LedgerExchange, app.Logger), nil
}

func (app *Application) startScheduler() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if _, err := app.Reconciler.Register(s, app.Config.ReconcileInterval); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	s.Start()
	app.scheduler = s
	app.Logger.Info("Ledger reconciliation scheduled.", "interval", app.Config.ReconcileInterval)
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error
	if app.scheduler != nil {
		if err := app.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop scheduler: %w", err))
		}
	}
	if app.amqpConn != nil {
		if err := app.amqpConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close rabbitmq connection: %w", err))
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		app.Logger.Error("Application shut down with errors", "error", err)
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
