// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"tochcoin-wallet/internal/util"
)

// DefaultMaxRetries is used when Config.MaxRetries is not set.
const DefaultMaxRetries = 5

// TxController defines methods for controlling a database transaction.
// *sqlx.Tx implicitly implements this interface.
type TxController interface {
	Commit() error
	Rollback() error
}

// DBTxBeginner defines the interface for beginning transactions.
// *sqlx.DB implements this.
type DBTxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TxFunc is the body of a database transaction.
type TxFunc func(ctx context.Context, tx *sqlx.Tx) error

// TxManager runs functions inside SERIALIZABLE transactions and retries the whole
// function when postgres reports a serialization failure or deadlock.
type TxManager struct {
	db         DBTxBeginner
	maxRetries int
	backoff    time.Duration
	onRetry    func(attempt int, err error)
}

// TxOption customizes a TxManager.
type TxOption func(*TxManager)

// WithBackoff sets the base delay between attempts. Attempt n waits n*d.
func WithBackoff(d time.Duration) TxOption {
	return func(m *TxManager) { m.backoff = d }
}

// WithRetryHook is called before every retry.
func WithRetryHook(fn func(attempt int, err error)) TxOption {
	return func(m *TxManager) { m.onRetry = fn }
}

// NewTxManager creates a TxManager. maxRetries <= 0 means DefaultMaxRetries.
func NewTxManager(dbConn DBTxBeginner, maxRetries int, opts ...TxOption) *TxManager {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	m := &TxManager{
		db:         dbConn,
		maxRetries: maxRetries,
		backoff:    10 * time.Millisecond,
		onRetry:    func(int, error) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunInTx executes fn in a transaction. On a serialization failure the transaction is
// rolled back and fn runs again, up to maxRetries extra times, after which the error
// wraps util.ErrTransactionConflict. Connection failures wrap util.ErrStorageUnavailable.
// Any other error from fn is returned as is after rollback.
func (m *TxManager) RunInTx(ctx context.Context, fn TxFunc) error {
	for attempt := 1; ; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsSerializationFailure(err) {
			return Classify(err)
		}
		if attempt > m.maxRetries {
			return fmt.Errorf("%w: gave up after %d attempts: %v", util.ErrTransactionConflict, attempt, err)
		}
		m.onRetry(attempt, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * m.backoff):
		}
	}
}

func (m *TxManager) runOnce(ctx context.Context, fn TxFunc) error {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer RollbackTx(tx)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := CommitTx(tx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the transaction. It is meant to be deferred, so the error is only logged.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Default().Warn("rollback failed", "error", err)
	}
}
