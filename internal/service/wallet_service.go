// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/metrics"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Notifier receives committed ledger activity. Failures are logged by the caller and
// never change the result of the operation that produced the payload.
type Notifier interface {
	LedgerEvent(ctx context.Context, event domain.LedgerEvent) error
	Reward(ctx context.Context, notice domain.RewardNotice) error
}

// TransactionResult is the outcome of one committed ledger write.
type TransactionResult struct {
	NewBalance  int64
	Transaction *domain.Transaction
}

// WalletService defines the interface for the wallet ledger engine.
type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	ProcessTransaction(ctx context.Context, req domain.TransactionRequest) (*TransactionResult, error)

	// ApplyWithin performs the ledger write inside an atomic unit owned by the caller.
	// The caller must pass the result to Committed once its unit has committed.
	ApplyWithin(ctx context.Context, tx repository.Repositories, req domain.TransactionRequest) (*TransactionResult, error)
	Committed(ctx context.Context, res *TransactionResult)
}

// walletService implements the WalletService interface.
type walletService struct {
	store    repository.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(store repository.Store, notifier Notifier, logger *slog.Logger) WalletService {
	return &walletService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on first access.
func (s *walletService) GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("get wallet: %w: user id is required", util.ErrInvalidInput)
	}

	wallet, err := s.store.Wallets().GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("get wallet %s: %w", userID, err)
	}

	err = s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Repositories) error {
		created, err := tx.Wallets().CreateIfMissing(ctx, userID)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info("wallet created", "user_id", userID)
		}
		wallet, err = tx.Wallets().GetByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create wallet %s: %w", userID, err)
	}
	return wallet, nil
}

// ListTransactions returns the newest entries of the user's history, newest first.
func (s *walletService) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("list transactions: %w: user id is required", util.ErrInvalidInput)
	}
	limit = clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)

	transactions, err := s.store.Transactions().ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions %s: %w", userID, err)
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return transactions, nil
}

// ProcessTransaction applies one credit or debit and appends its history entry in a
// single atomic unit. It is not idempotent.
func (s *walletService) ProcessTransaction(ctx context.Context, req domain.TransactionRequest) (*TransactionResult, error) {
	if err := req.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
		s.failed(req, err)
		return nil, fmt.Errorf("process transaction: %w", err)
	}

	var res *TransactionResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Repositories) error {
		applied, err := s.ApplyWithin(ctx, tx, req)
		if err != nil {
			return err
		}
		res = applied
		return nil
	})
	if err != nil {
		s.failed(req, err)
		return nil, fmt.Errorf("process transaction: %w", err)
	}

	s.Committed(ctx, res)
	return res, nil
}

func (s *walletService) ApplyWithin(ctx context.Context, tx repository.Repositories, req domain.TransactionRequest) (*TransactionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}

	if _, err := tx.Wallets().CreateIfMissing(ctx, req.UserID); err != nil {
		return nil, err
	}
	wallet, err := tx.Wallets().GetByUserIDForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	entry := domain.NewTransaction(req.UserID, req.Amount, req.Type, req.Source, req.Description)
	if req.Type == domain.TransactionTypeDebit && req.Amount > wallet.Balance {
		return nil, util.ErrInsufficientFunds
	}
	newBalance := entry.Apply(wallet.Balance)
	if newBalance < 0 {
		return nil, fmt.Errorf("%w: balance overflow", util.ErrInvalidInput)
	}

	if _, err := tx.Wallets().SetBalance(ctx, req.UserID, newBalance); err != nil {
		return nil, err
	}
	if err := tx.Transactions().Append(ctx, entry); err != nil {
		return nil, err
	}
	return &TransactionResult{NewBalance: newBalance, Transaction: entry}, nil
}

func (s *walletService) Committed(ctx context.Context, res *TransactionResult) {
	entry := res.Transaction
	metrics.RecordLedgerTransaction(string(entry.Type), string(entry.Source), metrics.OutcomeOK)
	s.logger.Info("ledger transaction committed",
		"user_id", entry.WalletID,
		"amount", entry.Amount,
		"type", entry.Type,
		"source", entry.Source,
		"balance", res.NewBalance,
	)

	occurredAt := entry.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	event := domain.LedgerEvent{
		EventID:       uuid.NewString(),
		TransactionID: entry.ID,
		UserID:        entry.WalletID,
		Amount:        entry.Amount,
		Type:          entry.Type,
		Source:        entry.Source,
		Description:   entry.Description,
		BalanceAfter:  res.NewBalance,
		OccurredAt:    occurredAt,
	}
	if err := s.notifier.LedgerEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish ledger event", "user_id", entry.WalletID, "transaction_id", entry.ID, "error", err)
	}
}

func (s *walletService) failed(req domain.TransactionRequest, err error) {
	outcome := outcomeOf(err)
	metrics.RecordLedgerTransaction(string(req.Type), string(req.Source), outcome)

	attrs := []any{"user_id", req.UserID, "amount", req.Amount, "type", req.Type, "source", req.Source, "error", err}
	switch outcome {
	case metrics.OutcomeInsufficientFunds, metrics.OutcomeInvalid:
		s.logger.Info("ledger transaction rejected", attrs...)
	default:
		s.logger.Error("ledger transaction failed", attrs...)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, util.ErrInsufficientFunds):
		return metrics.OutcomeInsufficientFunds
	case errors.Is(err, util.ErrTransactionConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, util.ErrStorageUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, util.ErrInvalidInput):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
