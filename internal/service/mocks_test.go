// internal/service/mocks_test.go
package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) CreateIfMissing(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletRepository) SetBalance(ctx context.Context, userID string, balance int64) (*domain.Wallet, error) {
	args := m.Called(ctx, userID, balance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Append(ctx context.Context, transaction *domain.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListRecent(ctx context.Context, walletID string, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, walletID, limit)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Totals(ctx context.Context, walletID string) (repository.LedgerTotals, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(repository.LedgerTotals), args.Error(1)
}

type mockRepositories struct {
	wallets      *MockWalletRepository
	transactions *MockTransactionRepository
}

func (r *mockRepositories) Wallets() repository.WalletRepository           { return r.wallets }
func (r *mockRepositories) Transactions() repository.TransactionRepository { return r.transactions }
func (r *mockRepositories) Profiles() repository.ProfileRepository         { return nil }
func (r *mockRepositories) Events() repository.EventRepository             { return nil }

// MockStore runs atomic units directly against the mocked repositories unless
// RunAtomic is told to fail, which is how adapter-level failures are simulated.
type MockStore struct {
	mock.Mock
	mockRepositories
}

func newMockStore() *MockStore {
	return &MockStore{mockRepositories: mockRepositories{
		wallets:      new(MockWalletRepository),
		transactions: new(MockTransactionRepository),
	}}
}

func (m *MockStore) RunAtomic(ctx context.Context, fn repository.AtomicFunc) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, &m.mockRepositories)
}

func (m *MockStore) Ping(ctx context.Context) error { return nil }
func (m *MockStore) Close() error                   { return nil }

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) LedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotifier) Reward(ctx context.Context, notice domain.RewardNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// recordingNotifier keeps every payload; safe for concurrent use.
type recordingNotifier struct {
	mu      sync.Mutex
	events  []domain.LedgerEvent
	rewards []domain.RewardNotice
}

func (n *recordingNotifier) LedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Reward(ctx context.Context, notice domain.RewardNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rewards = append(n.rewards, notice)
	return nil
}

func (n *recordingNotifier) Rewards() []domain.RewardNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.RewardNotice(nil), n.rewards...)
}

func (n *recordingNotifier) Events() []domain.LedgerEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.LedgerEvent(nil), n.events...)
}
