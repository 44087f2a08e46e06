// internal/repository/memory/repositories.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
)

type walletRepo struct{ *repos }

func (r *walletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := r.with(func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			return util.ErrNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

// GetByUserIDForUpdate needs no extra locking: atomic units already run one at a time.
func (r *walletRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *walletRepo) CreateIfMissing(ctx context.Context, userID string) (bool, error) {
	created := false
	err := r.with(func(st *state) error {
		if _, ok := st.wallets[userID]; ok {
			return nil
		}
		now := r.stamp(st)
		st.wallets[userID] = domain.Wallet{UserID: userID, CreatedAt: now, UpdatedAt: now}
		created = true
		return nil
	})
	return created, err
}

func (r *walletRepo) SetBalance(ctx context.Context, userID string, balance int64) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := r.with(func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			return util.ErrNotFound
		}
		w.Balance = balance
		w.UpdatedAt = r.stamp(st)
		st.wallets[userID] = w
		out = &w
		return nil
	})
	return out, err
}

func (r *walletRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	_ = r.with(func(st *state) error {
		ids = make([]string, 0, len(st.wallets))
		for id := range st.wallets {
			ids = append(ids, id)
		}
		return nil
	})
	sort.Strings(ids)
	return ids, nil
}

type transactionRepo struct{ *repos }

func (r *transactionRepo) Append(ctx context.Context, transaction *domain.Transaction) error {
	return r.with(func(st *state) error {
		if _, ok := st.wallets[transaction.WalletID]; !ok {
			return util.ErrNotFound
		}
		if transaction.Source == domain.SourceRewardSignup {
			for _, existing := range st.transactions[transaction.WalletID] {
				if existing.Source == domain.SourceRewardSignup {
					return util.ErrDuplicateEntry
				}
			}
		}
		transaction.ID = uuid.NewString()
		transaction.CreatedAt = r.stamp(st)
		st.transactions[transaction.WalletID] = append(st.transactions[transaction.WalletID], *transaction)
		return nil
	})
}

func (r *transactionRepo) ListRecent(ctx context.Context, walletID string, limit int) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	_ = r.with(func(st *state) error {
		history := st.transactions[walletID]
		for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, history[i])
		}
		return nil
	})
	return out, nil
}

func (r *transactionRepo) Totals(ctx context.Context, walletID string) (repository.LedgerTotals, error) {
	var totals repository.LedgerTotals
	_ = r.with(func(st *state) error {
		for _, t := range st.transactions[walletID] {
			if t.Type == domain.TransactionTypeDebit {
				totals.Debits += t.Amount
			} else {
				totals.Credits += t.Amount
			}
			totals.Count++
		}
		return nil
	})
	return totals, nil
}

type profileRepo struct{ *repos }

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var out *domain.Profile
	err := r.with(func(st *state) error {
		p, ok := st.profiles[userID]
		if !ok {
			return util.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *profileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	return r.with(func(st *state) error {
		if _, ok := st.profiles[profile.UserID]; ok {
			return util.ErrDuplicateEntry
		}
		now := r.stamp(st)
		profile.CreatedAt, profile.UpdatedAt = now, now
		st.profiles[profile.UserID] = *profile
		return nil
	})
}

func (r *profileRepo) Update(ctx context.Context, profile *domain.Profile) error {
	return r.with(func(st *state) error {
		existing, ok := st.profiles[profile.UserID]
		if !ok {
			return util.ErrNotFound
		}
		updated := *profile
		updated.CreatedAt = existing.CreatedAt
		updated.SignupMethod = existing.SignupMethod
		updated.UpdatedAt = r.stamp(st)
		st.profiles[profile.UserID] = updated
		*profile = updated
		return nil
	})
}

type eventRepo struct{ *repos }

func (r *eventRepo) Create(ctx context.Context, event *domain.CommunityEvent) error {
	return r.with(func(st *state) error {
		event.ID = uuid.NewString()
		event.CreatedAt = r.stamp(st)
		stored := *event
		stored.Attendees = append(stored.Attendees[:0:0], event.Attendees...)
		st.events = append(st.events, stored)
		return nil
	})
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*domain.CommunityEvent, error) {
	var out *domain.CommunityEvent
	err := r.with(func(st *state) error {
		for _, e := range st.events {
			if e.ID == id {
				e.Attendees = append(e.Attendees[:0:0], e.Attendees...)
				out = &e
				return nil
			}
		}
		return util.ErrNotFound
	})
	return out, err
}

func (r *eventRepo) CountActiveByCreator(ctx context.Context, creatorID string, now time.Time) (int, error) {
	count := 0
	_ = r.with(func(st *state) error {
		for _, e := range st.events {
			if e.CreatorID == creatorID && e.IsActive(now) {
				count++
			}
		}
		return nil
	})
	return count, nil
}

func (r *eventRepo) ListRecent(ctx context.Context, limit int) ([]domain.CommunityEvent, error) {
	out := []domain.CommunityEvent{}
	_ = r.with(func(st *state) error {
		for i := len(st.events) - 1; i >= 0 && len(out) < limit; i-- {
			e := st.events[i]
			e.Attendees = append(e.Attendees[:0:0], e.Attendees...)
			out = append(out, e)
		}
		return nil
	})
	return out, nil
}

func (r *eventRepo) AddAttendee(ctx context.Context, eventID, userID string) error {
	return r.with(func(st *state) error {
		for i := range st.events {
			if st.events[i].ID != eventID {
				continue
			}
			if !st.events[i].HasAttendee(userID) {
				st.events[i].Attendees = append(st.events[i].Attendees, userID)
			}
			return nil
		}
		return util.ErrNotFound
	})
}
