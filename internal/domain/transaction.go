// internal/domain/transaction.go
package domain

import (
	"fmt"
	"time"
)

// TransactionType is the direction of a ledger entry. Amounts are always positive.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Valid reports whether t is a known direction.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// TransactionSource tags the reason for a ledger entry.
type TransactionSource string

const (
	SourceRewardLogin         TransactionSource = "reward_login"
	SourceRewardReview        TransactionSource = "reward_review"
	SourceRewardEvent         TransactionSource = "reward_event"
	SourceRedeemPromo         TransactionSource = "redeem_promo"
	SourceAdminAdjustment     TransactionSource = "admin_adjustment"
	SourceRewardSignup        TransactionSource = "reward_signup"
	SourceRewardEventCreation TransactionSource = "reward_event_creation"
)

var knownSources = map[TransactionSource]struct{}{
	SourceRewardLogin:         {},
	SourceRewardReview:        {},
	SourceRewardEvent:         {},
	SourceRedeemPromo:         {},
	SourceAdminAdjustment:     {},
	SourceRewardSignup:        {},
	SourceRewardEventCreation: {},
}

// Valid reports whether s is a known source tag.
func (s TransactionSource) Valid() bool {
	_, ok := knownSources[s]
	return ok
}

// Transaction is an immutable ledger entry. WalletID is the owner's user id.
type Transaction struct {
	ID          string            `db:"id" json:"id"`
	WalletID    string            `db:"wallet_id" json:"wallet_id"`
	Amount      int64             `db:"amount" json:"amount"`
	Type        TransactionType   `db:"type" json:"type"`
	Source      TransactionSource `db:"source" json:"source"`
	Description string            `db:"description" json:"description"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// NewTransaction builds an unsaved ledger entry. ID and CreatedAt are assigned by the store.
func NewTransaction(walletID string, amount int64, txType TransactionType, source TransactionSource, description string) *Transaction {
	return &Transaction{
		WalletID:    walletID,
		Amount:      amount,
		Type:        txType,
		Source:      source,
		Description: description,
	}
}

// Apply returns the balance after applying the entry to balance.
func (t *Transaction) Apply(balance int64) int64 {
	if t.Type == TransactionTypeDebit {
		return balance - t.Amount
	}
	return balance + t.Amount
}

// TransactionRequest is the input of a ledger write.
type TransactionRequest struct {
	UserID      string
	Amount      int64
	Type        TransactionType
	Source      TransactionSource
	Description string
}

// Validate checks the preconditions of a ledger write.
func (r TransactionRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", r.Amount)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("unknown transaction type %q", r.Type)
	}
	if !r.Source.Valid() {
		return fmt.Errorf("unknown transaction source %q", r.Source)
	}
	return nil
}
