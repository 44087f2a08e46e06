// internal/domain/notice.go
package domain

import "time"

// RewardNotice is what the presentation layer shows after a reward credit.
type RewardNotice struct {
	UserID     string            `json:"user_id"`
	Source     TransactionSource `json:"source"`
	Amount     int64             `json:"amount"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	NewBalance int64             `json:"new_balance"`
}

// LedgerEvent is published after a ledger transaction commits.
type LedgerEvent struct {
	EventID       string            `json:"event_id" bson:"_id"`
	TransactionID string            `json:"transaction_id" bson:"transaction_id"`
	UserID        string            `json:"user_id" bson:"user_id"`
	Amount        int64             `json:"amount" bson:"amount"`
	Type          TransactionType   `json:"type" bson:"type"`
	Source        TransactionSource `json:"source" bson:"source"`
	Description   string            `json:"description" bson:"description"`
	BalanceAfter  int64             `json:"balance_after" bson:"balance_after"`
	OccurredAt    time.Time         `json:"occurred_at" bson:"occurred_at"`
}
