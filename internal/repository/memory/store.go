// internal/repository/memory/store.go
package memory

import (
	"context"
	"sync"
	"time"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
)

// state is one consistent snapshot of everything the store holds.
type state struct {
	wallets      map[string]domain.Wallet
	transactions map[string][]domain.Transaction // per wallet, in append order
	profiles     map[string]domain.Profile
	events       []domain.CommunityEvent // in creation order
	lastStamp    time.Time
}

func newState() *state {
	return &state{
		wallets:      map[string]domain.Wallet{},
		transactions: map[string][]domain.Transaction{},
		profiles:     map[string]domain.Profile{},
	}
}

func (s *state) clone() *state {
	c := &state{
		wallets:      make(map[string]domain.Wallet, len(s.wallets)),
		transactions: make(map[string][]domain.Transaction, len(s.transactions)),
		profiles:     make(map[string]domain.Profile, len(s.profiles)),
		events:       make([]domain.CommunityEvent, len(s.events)),
		lastStamp:    s.lastStamp,
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = append([]domain.Transaction(nil), v...)
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for i, e := range s.events {
		e.Attendees = append(e.Attendees[:0:0], e.Attendees...)
		c.events[i] = e
	}
	return c
}

// Store is an in-process repository.Store. Atomic units run one at a time against a
// private copy of the state which replaces the shared state only when the unit succeeds,
// so a failed unit leaves no trace. Meant for local runs and tests.
type Store struct {
	mu    sync.Mutex
	state *state
	clock func() time.Time
	view  *repos
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of server timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: newState(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.view = &repos{store: s}
	return s
}

func (s *Store) Wallets() repository.WalletRepository           { return &walletRepo{s.view} }
func (s *Store) Transactions() repository.TransactionRepository { return &transactionRepo{s.view} }
func (s *Store) Profiles() repository.ProfileRepository         { return &profileRepo{s.view} }
func (s *Store) Events() repository.EventRepository             { return &eventRepo{s.view} }

// RunAtomic runs fn against a private copy of the state and publishes it on success.
func (s *Store) RunAtomic(ctx context.Context, fn repository.AtomicFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.state.clone()
	tx := &repos{store: s, tx: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// repos exposes the repositories over either the shared state (tx == nil, every call
// takes the lock) or a staged copy owned by a running atomic unit.
type repos struct {
	store *Store
	tx    *state
}

func (r *repos) Wallets() repository.WalletRepository           { return &walletRepo{r} }
func (r *repos) Transactions() repository.TransactionRepository { return &transactionRepo{r} }
func (r *repos) Profiles() repository.ProfileRepository         { return &profileRepo{r} }
func (r *repos) Events() repository.EventRepository             { return &eventRepo{r} }

func (r *repos) with(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

// stamp returns a server timestamp strictly after every one handed out before.
func (r *repos) stamp(st *state) time.Time {
	now := r.store.clock().UTC()
	if !now.After(st.lastStamp) {
		now = st.lastStamp.Add(time.Microsecond)
	}
	st.lastStamp = now
	return now
}
