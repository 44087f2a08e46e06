// internal/repository/postgres/store.go
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/pkg/db"
)

// repositories binds every repository to one executor.
type repositories struct {
	wallets      *WalletRepository
	transactions *TransactionRepository
	profiles     *ProfileRepository
	events       *EventRepository
}

func newRepositories(q repository.DBExecutor) *repositories {
	return &repositories{
		wallets:      NewWalletRepository(q),
		transactions: NewTransactionRepository(q),
		profiles:     NewProfileRepository(q),
		events:       NewEventRepository(q),
	}
}

func (r *repositories) Wallets() repository.WalletRepository           { return r.wallets }
func (r *repositories) Transactions() repository.TransactionRepository { return r.transactions }
func (r *repositories) Profiles() repository.ProfileRepository         { return r.profiles }
func (r *repositories) Events() repository.EventRepository             { return r.events }

// Store implements repository.Store on PostgreSQL.
type Store struct {
	*repositories
	db  *sqlx.DB
	txm *db.TxManager
}

// NewStore creates a Store. Plain repository calls run on the pool; RunAtomic runs on a
// SERIALIZABLE transaction managed by txm.
func NewStore(conn *sqlx.DB, txm *db.TxManager) *Store {
	return &Store{
		repositories: newRepositories(conn),
		db:           conn,
		txm:          txm,
	}
}

// RunAtomic runs fn with repositories bound to a single transaction.
func (s *Store) RunAtomic(ctx context.Context, fn repository.AtomicFunc) error {
	return s.txm.RunInTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return db.Classify(s.db.PingContext(ctx))
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
