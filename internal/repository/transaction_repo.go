// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"tochcoin-wallet/internal/domain"
)

// LedgerTotals are the summed credits and debits of one wallet's history.
type LedgerTotals struct {
	Credits int64 `db:"credits"`
	Debits  int64 `db:"debits"`
	Count   int64 `db:"count"`
}

// Net is credits minus debits.
func (t LedgerTotals) Net() int64 {
	return t.Credits - t.Debits
}

// TransactionRepository defines the interface for the append-only ledger history.
// There is deliberately no update or delete.
type TransactionRepository interface {
	// Append stores the entry, filling in ID and CreatedAt.
	Append(ctx context.Context, transaction *domain.Transaction) error
	// ListRecent returns the newest limit entries of walletID, newest first.
	ListRecent(ctx context.Context, walletID string, limit int) ([]domain.Transaction, error)
	// Totals sums the wallet's history by direction.
	Totals(ctx context.Context, walletID string) (LedgerTotals, error)
}
