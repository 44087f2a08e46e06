// internal/domain/wallet.go
package domain

import "time"

// Wallet holds a user's TCN balance. Balance is only ever changed by a ledger transaction.
type Wallet struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
