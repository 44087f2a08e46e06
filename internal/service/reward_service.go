// internal/service/reward_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/metrics"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
)

const (
	DefaultSignupBonus         int64 = 5
	DefaultEventCreationReward int64 = 2

	DefaultEventsLimit = 50
	MaxEventsLimit     = 100

	maxEventTitleLength = 120
)

// RewardConfig holds the reward amounts and the clock used by the active-event gate.
type RewardConfig struct {
	SignupBonus         int64
	EventCreationReward int64
	Now                 func() time.Time
}

// RegistrationResult is returned by RegisterProfile. Reward is nil unless this call
// created the profile.
type RegistrationResult struct {
	Profile *domain.Profile
	Created bool
	Reward  *domain.RewardNotice
}

// EventInput is the user-supplied part of a community event.
type EventInput struct {
	Title       string
	Description string
	Sport       domain.Sport
	Date        time.Time
	Lat         float64
	Lon         float64
}

// EventResult is returned by CreateEvent.
type EventResult struct {
	Event  *domain.CommunityEvent
	Reward *domain.RewardNotice
}

// RewardService decides when lifecycle moments earn TCN and grants each reward once.
type RewardService interface {
	RegisterProfile(ctx context.Context, profile *domain.Profile, method domain.SignupMethod) (*RegistrationResult, error)
	CreateEvent(ctx context.Context, userID string, input EventInput) (*EventResult, error)
	ListEvents(ctx context.Context, limit int) ([]domain.CommunityEvent, error)
	JoinEvent(ctx context.Context, eventID, userID string) (*domain.CommunityEvent, error)
}

type rewardService struct {
	store    repository.Store
	wallets  WalletService
	notifier Notifier
	cfg      RewardConfig
	logger   *slog.Logger
}

// NewRewardService creates a new instance of RewardService.
func NewRewardService(store repository.Store, wallets WalletService, notifier Notifier, cfg RewardConfig, logger *slog.Logger) RewardService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &rewardService{
		store:    store,
		wallets:  wallets,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// RegisterProfile creates the profile and grants the signup bonus in the same atomic unit.
// For a profile that already exists it only fills in missing contact fields.
func (s *rewardService) RegisterProfile(ctx context.Context, profile *domain.Profile, method domain.SignupMethod) (*RegistrationResult, error) {
	if profile == nil || profile.UserID == "" {
		return nil, fmt.Errorf("register profile: %w: user id is required", util.ErrInvalidInput)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("register profile: %w: unknown signup method %q", util.ErrInvalidInput, method)
	}

	var (
		result  *RegistrationResult
		applied *TransactionResult
	)
	unit := func(ctx context.Context, tx repository.Repositories) error {
		result, applied = nil, nil

		existing, err := tx.Profiles().GetByUserID(ctx, profile.UserID)
		if err == nil {
			if existing.MergeMissing(profile) {
				if err := tx.Profiles().Update(ctx, existing); err != nil {
					return err
				}
			}
			result = &RegistrationResult{Profile: existing}
			return nil
		}
		if !errors.Is(err, util.ErrNotFound) {
			return err
		}

		created := *profile
		created.SignupMethod = method
		created.IsAnonymous = false
		if err := tx.Profiles().Create(ctx, &created); err != nil {
			return err
		}
		result = &RegistrationResult{Profile: &created, Created: true}

		if s.cfg.SignupBonus <= 0 {
			_, err := tx.Wallets().CreateIfMissing(ctx, created.UserID)
			return err
		}
		applied, err = s.wallets.ApplyWithin(ctx, tx, domain.TransactionRequest{
			UserID:      created.UserID,
			Amount:      s.cfg.SignupBonus,
			Type:        domain.TransactionTypeCredit,
			Source:      domain.SourceRewardSignup,
			Description: "Bono de Bienvenida",
		})
		return err
	}

	err := s.store.RunAtomic(ctx, unit)
	if errors.Is(err, util.ErrDuplicateEntry) {
		// A concurrent registration created the profile first; the rerun takes the merge path.
		err = s.store.RunAtomic(ctx, unit)
	}
	if err != nil {
		return nil, fmt.Errorf("register profile %s: %w", profile.UserID, err)
	}

	if result.Created {
		s.logger.Info("profile registered", "user_id", profile.UserID, "method", method)
	}
	if applied != nil {
		result.Reward = s.granted(ctx, applied,
			"¡Bienvenido!",
			fmt.Sprintf("Has recibido %d TCN de bienvenida.", applied.Transaction.Amount))
	}
	return result, nil
}

// CreateEvent creates the event and grants the creation reward, unless the user still has
// an event in the future, in which case nothing is written.
func (s *rewardService) CreateEvent(ctx context.Context, userID string, input EventInput) (*EventResult, error) {
	now := s.cfg.Now().UTC()
	if err := validateEventInput(userID, input, now); err != nil {
		return nil, fmt.Errorf("create event: %w: %v", util.ErrInvalidInput, err)
	}
	sport := input.Sport
	if sport == "" {
		sport = domain.SportOther
	}

	var (
		event   *domain.CommunityEvent
		applied *TransactionResult
	)
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Repositories) error {
		event, applied = nil, nil

		active, err := tx.Events().CountActiveByCreator(ctx, userID, now)
		if err != nil {
			return err
		}
		if active > 0 {
			return util.ErrActiveEventExists
		}

		profile, err := tx.Profiles().GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, util.ErrNotFound) {
			return err
		}

		event = &domain.CommunityEvent{
			CreatorID:   userID,
			CreatorName: profile.DisplayName(),
			Title:       strings.TrimSpace(input.Title),
			Description: strings.TrimSpace(input.Description),
			Sport:       sport,
			Date:        input.Date.UTC(),
			Lat:         input.Lat,
			Lon:         input.Lon,
			Attendees:   []string{userID},
		}
		if err := tx.Events().Create(ctx, event); err != nil {
			return err
		}

		if s.cfg.EventCreationReward <= 0 {
			return nil
		}
		applied, err = s.wallets.ApplyWithin(ctx, tx, domain.TransactionRequest{
			UserID:      userID,
			Amount:      s.cfg.EventCreationReward,
			Type:        domain.TransactionTypeCredit,
			Source:      domain.SourceRewardEventCreation,
			Description: "Creación de Evento",
		})
		return err
	})
	if err != nil {
		if errors.Is(err, util.ErrActiveEventExists) {
			s.logger.Info("event creation rejected", "user_id", userID, "error", err)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info("event created", "user_id", userID, "event_id", event.ID)
	result := &EventResult{Event: event}
	if applied != nil {
		result.Reward = s.granted(ctx, applied,
			"¡Evento Creado!",
			fmt.Sprintf("Has ganado %d TCN por contribuir a la comunidad.", applied.Transaction.Amount))
	}
	return result, nil
}

func (s *rewardService) ListEvents(ctx context.Context, limit int) ([]domain.CommunityEvent, error) {
	events, err := s.store.Events().ListRecent(ctx, clampLimit(limit, DefaultEventsLimit, MaxEventsLimit))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []domain.CommunityEvent{}
	}
	return events, nil
}

// JoinEvent adds userID to the attendees. Joining twice is a no-op.
func (s *rewardService) JoinEvent(ctx context.Context, eventID, userID string) (*domain.CommunityEvent, error) {
	if eventID == "" || userID == "" {
		return nil, fmt.Errorf("join event: %w: event id and user id are required", util.ErrInvalidInput)
	}
	if err := s.store.Events().AddAttendee(ctx, eventID, userID); err != nil {
		return nil, fmt.Errorf("join event %s: %w", eventID, err)
	}
	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("join event %s: %w", eventID, err)
	}
	return event, nil
}

// granted runs the post-commit side effects of a reward credit and builds its notice.
func (s *rewardService) granted(ctx context.Context, applied *TransactionResult, title, message string) *domain.RewardNotice {
	s.wallets.Committed(ctx, applied)
	metrics.RecordReward(string(applied.Transaction.Source))

	notice := &domain.RewardNotice{
		UserID:     applied.Transaction.WalletID,
		Source:     applied.Transaction.Source,
		Amount:     applied.Transaction.Amount,
		Title:      title,
		Message:    message,
		NewBalance: applied.NewBalance,
	}
	if err := s.notifier.Reward(ctx, *notice); err != nil {
		s.logger.Warn("failed to publish reward notice", "user_id", notice.UserID, "source", notice.Source, "error", err)
	}
	return notice
}

func validateEventInput(userID string, in EventInput, now time.Time) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case userID == "":
		return errors.New("user id is required")
	case title == "":
		return errors.New("title is required")
	case len(title) > maxEventTitleLength:
		return fmt.Errorf("title is longer than %d characters", maxEventTitleLength)
	case in.Sport != "" && !in.Sport.Valid():
		return fmt.Errorf("unknown sport %q", in.Sport)
	case !in.Date.After(now):
		return errors.New("date must be in the future")
	case in.Lat < -90 || in.Lat > 90:
		return fmt.Errorf("latitude %v out of range", in.Lat)
	case in.Lon < -180 || in.Lon > 180:
		return fmt.Errorf("longitude %v out of range", in.Lon)
	}
	return nil
}
