// internal/repository/profile_repo.go
package repository

import (
	"context"

	"tochcoin-wallet/internal/domain"
)

// ProfileRepository defines the interface for user profile data operations.
type ProfileRepository interface {
	// GetByUserID returns util.ErrNotFound when the profile does not exist.
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// Create inserts a new profile and returns util.ErrDuplicateEntry if one already exists.
	Create(ctx context.Context, profile *domain.Profile) error
	// Update overwrites the mutable contact fields of an existing profile.
	Update(ctx context.Context, profile *domain.Profile) error
}
