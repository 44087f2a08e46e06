// internal/repository/store.go
package repository

import "context"

// Repositories groups every repository bound to the same connection or atomic unit.
type Repositories interface {
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Profiles() ProfileRepository
	Events() EventRepository
}

// AtomicFunc is one atomic unit of work. It may be invoked more than once when the
// store retries after a write conflict, so it must not have side effects outside tx.
type AtomicFunc func(ctx context.Context, tx Repositories) error

// Store is the storage adapter used by the services.
//
// RunAtomic applies every read and write made through tx together or not at all and
// serializes concurrent units. Errors returned by fn abort the unit and are returned
// unchanged. When the store gives up retrying a contended unit it returns
// util.ErrTransactionConflict; reachability failures are util.ErrStorageUnavailable.
type Store interface {
	Repositories
	RunAtomic(ctx context.Context, fn AtomicFunc) error
	Ping(ctx context.Context) error
	Close() error
}
