// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"tochcoin-wallet/internal/domain"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// GetByUserID returns util.ErrNotFound when the user has no wallet yet.
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	// GetByUserIDForUpdate reads the wallet and locks it until the surrounding atomic unit ends.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error)
	// CreateIfMissing inserts an empty wallet unless one exists. It reports whether a row was written.
	CreateIfMissing(ctx context.Context, userID string) (bool, error)
	// SetBalance stores the new balance. Only the ledger engine calls it, inside an atomic unit.
	SetBalance(ctx context.Context, userID string, balance int64) (*domain.Wallet, error)
	// ListUserIDs returns every wallet owner, used by reconciliation.
	ListUserIDs(ctx context.Context) ([]string, error)
}
