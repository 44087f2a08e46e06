// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
	"tochcoin-wallet/pkg/db"
)

const walletColumns = `user_id, balance, created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct {
	q repository.DBExecutor
}

// NewWalletRepository creates a WalletRepository bound to q (*sqlx.DB or *sqlx.Tx).
func NewWalletRepository(q repository.DBExecutor) *WalletRepository {
	return &WalletRepository{q: q}
}

// GetByUserID retrieves the wallet owned by userID.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
}

// GetByUserIDForUpdate retrieves the wallet and holds a row lock until the transaction ends.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *WalletRepository) get(ctx context.Context, query, userID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.q.GetContext(ctx, &wallet, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, db.Classify(fmt.Errorf("failed to get wallet for user %s: %w", userID, err))
	}
	return &wallet, nil
}

// CreateIfMissing inserts an empty wallet for userID unless one already exists.
func (r *WalletRepository) CreateIfMissing(ctx context.Context, userID string) (bool, error) {
	query := `INSERT INTO wallets (user_id, balance, created_at, updated_at)
              VALUES ($1, 0, NOW(), NOW())
              ON CONFLICT (user_id) DO NOTHING`
	result, err := r.q.ExecContext(ctx, query, userID)
	if err != nil {
		return false, db.Classify(fmt.Errorf("failed to create wallet for user %s: %w", userID, err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected after creating wallet for user %s: %w", userID, err)
	}
	return rowsAffected == 1, nil
}

// SetBalance stores balance as the wallet's new balance and returns the updated row.
func (r *WalletRepository) SetBalance(ctx context.Context, userID string, balance int64) (*domain.Wallet, error) {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE user_id = $2
              RETURNING ` + walletColumns
	var wallet domain.Wallet
	if err := r.q.QueryRowxContext(ctx, query, balance, userID).StructScan(&wallet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, db.Classify(fmt.Errorf("failed to update wallet balance for user %s: %w", userID, err))
	}
	return &wallet, nil
}

// ListUserIDs returns the owners of every wallet.
func (r *WalletRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	userIDs := []string{}
	if err := r.q.SelectContext(ctx, &userIDs, `SELECT user_id FROM wallets ORDER BY user_id`); err != nil {
		return nil, db.Classify(fmt.Errorf("failed to list wallets: %w", err))
	}
	return userIDs, nil
}
