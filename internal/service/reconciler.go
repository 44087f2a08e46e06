// internal/service/reconciler.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tochcoin-wallet/internal/metrics"
	"tochcoin-wallet/internal/repository"
)

// Mismatch is a wallet whose stored balance disagrees with its history.
type Mismatch struct {
	UserID   string
	Balance  int64
	Expected int64
}

// Reconciler checks that every balance equals credits minus debits. It never writes.
type Reconciler struct {
	store   repository.Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewReconciler creates a Reconciler. Each scheduled run is bounded by timeout.
func NewReconciler(store repository.Store, logger *slog.Logger, timeout time.Duration) *Reconciler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Reconciler{store: store, logger: logger, timeout: timeout}
}

// Run compares every wallet with its history and returns the mismatches found.
func (r *Reconciler) Run(ctx context.Context) ([]Mismatch, error) {
	userIDs, err := r.store.Wallets().ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list wallets: %w", err)
	}

	var mismatches []Mismatch
	for _, userID := range userIDs {
		var m *Mismatch
		// Balance and totals are read in one unit so a concurrent write cannot split them.
		err := r.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Repositories) error {
			m = nil
			wallet, err := tx.Wallets().GetByUserID(ctx, userID)
			if err != nil {
				return err
			}
			totals, err := tx.Transactions().Totals(ctx, userID)
			if err != nil {
				return err
			}
			if wallet.Balance != totals.Net() {
				m = &Mismatch{UserID: userID, Balance: wallet.Balance, Expected: totals.Net()}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile wallet %s: %w", userID, err)
		}
		if m != nil {
			r.logger.Error("ledger mismatch", "user_id", m.UserID, "balance", m.Balance, "expected", m.Expected)
			mismatches = append(mismatches, *m)
		}
	}

	metrics.SetLedgerMismatches(len(mismatches))
	r.logger.Info("reconciliation finished", "wallets", len(userIDs), "mismatches", len(mismatches))
	return mismatches, nil
}

// Register schedules Run on s every interval. Overlapping runs are skipped.
func (r *Reconciler) Register(s gocron.Scheduler, interval time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			if _, err := r.Run(ctx); err != nil {
				r.logger.Error("reconciliation failed", "error", err)
			}
		}),
		gocron.WithName("ledger-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
