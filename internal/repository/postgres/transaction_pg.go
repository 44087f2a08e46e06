// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
	"tochcoin-wallet/pkg/db"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	q repository.DBExecutor
}

// NewTransactionRepository creates a TransactionRepository bound to q.
func NewTransactionRepository(q repository.DBExecutor) *TransactionRepository {
	return &TransactionRepository{q: q}
}

// Append inserts a new ledger entry. The id is generated here and created_at by the server.
// clock_timestamp() is used instead of NOW() so entries written by later-committing
// transactions never sort before earlier ones.
func (r *TransactionRepository) Append(ctx context.Context, transaction *domain.Transaction) error {
	id := uuid.NewString()
	query := `INSERT INTO wallet_transactions (id, wallet_id, amount, type, source, description, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp()) RETURNING created_at`

	err := r.q.QueryRowxContext(ctx, query,
		id,
		transaction.WalletID,
		transaction.Amount,
		transaction.Type,
		transaction.Source,
		transaction.Description,
	).Scan(&transaction.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create transaction: %w: %v", util.ErrDuplicateEntry, err)
		}
		return db.Classify(fmt.Errorf("failed to create transaction: %w", err))
	}
	transaction.ID = id
	return nil
}

// ListRecent retrieves the newest limit entries for a wallet.
func (r *TransactionRepository) ListRecent(ctx context.Context, walletID string, limit int) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `
		SELECT id, wallet_id, amount, type, source, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2`
	if err := r.q.SelectContext(ctx, &transactions, query, walletID, limit); err != nil {
		return nil, db.Classify(fmt.Errorf("failed to fetch transactions for wallet %s: %w", walletID, err))
	}
	return transactions, nil
}

// Totals sums a wallet's history by direction.
func (r *TransactionRepository) Totals(ctx context.Context, walletID string) (repository.LedgerTotals, error) {
	var totals repository.LedgerTotals
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'credit'), 0) AS credits,
		       COALESCE(SUM(amount) FILTER (WHERE type = 'debit'), 0) AS debits,
		       COUNT(*) AS count
		FROM wallet_transactions
		WHERE wallet_id = $1`
	if err := r.q.GetContext(ctx, &totals, query, walletID); err != nil {
		return totals, db.Classify(fmt.Errorf("failed to sum transactions for wallet %s: %w", walletID, err))
	}
	return totals, nil
}
