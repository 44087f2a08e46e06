// internal/api/router.go
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tochcoin-wallet/internal/api/auth"
	"tochcoin-wallet/internal/api/handler"
	mw "tochcoin-wallet/internal/api/middleware"
)

// RouterDeps are the handlers and guards the router is built from.
type RouterDeps struct {
	Wallets  *handler.WalletHandler
	Profiles *handler.ProfileHandler
	Events   *handler.EventHandler
	Verifier *auth.Verifier

	// Idempotency is nil when no cache is configured; the Idempotency-Key header is then ignored.
	Idempotency mw.IdempotencyStore
	// RateLimiter is nil to disable throttling.
	RateLimiter *mw.RateLimiter
	// Health reports whether storage is reachable.
	Health func(ctx context.Context) error
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(deps RouterDeps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))
	r.Use(mw.Metrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("UNAVAILABLE"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.Authenticate(deps.Verifier, logger))
		if deps.RateLimiter != nil {
			r.Use(mw.RateLimit(deps.RateLimiter, logger))
		}
		idempotent := mw.Idempotency(deps.Idempotency, logger)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", deps.Wallets.GetWallet)
			r.Get("/transactions", deps.Wallets.ListTransactions)
			r.With(idempotent).Post("/redemptions", deps.Wallets.Redeem)
		})

		r.Post("/profiles", deps.Profiles.Register)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", deps.Events.List)
			r.Post("/", deps.Events.Create)
			r.Post("/{eventId}/join", deps.Events.Join)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(auth.RoleAdmin, logger))
			r.With(idempotent).Post("/wallets/{userId}/adjustments", deps.Wallets.Adjust)
		})
	})

	return r
}
