// internal/repository/postgres/profile_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
	"tochcoin-wallet/pkg/db"
)

const profileColumns = `user_id, nickname, email, phone, photo_url, first_name, last_name,
                        neighborhood, is_anonymous, signup_method, created_at, updated_at`

// ProfileRepository implements repository.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	q repository.DBExecutor
}

// NewProfileRepository creates a ProfileRepository bound to q.
func NewProfileRepository(q repository.DBExecutor) *ProfileRepository {
	return &ProfileRepository{q: q}
}

// GetByUserID retrieves a profile by user id.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	if err := r.q.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, db.Classify(fmt.Errorf("failed to get profile %s: %w", userID, err))
	}
	return &profile, nil
}

// Create inserts a profile. An existing row for the same user yields util.ErrDuplicateEntry.
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `INSERT INTO profiles (user_id, nickname, email, phone, photo_url, first_name, last_name,
                                    neighborhood, is_anonymous, signup_method, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
              ON CONFLICT (user_id) DO NOTHING
              RETURNING created_at, updated_at`
	err := r.q.QueryRowxContext(ctx, query,
		profile.UserID,
		profile.Nickname,
		profile.Email,
		profile.Phone,
		profile.PhotoURL,
		profile.FirstName,
		profile.LastName,
		profile.Neighborhood,
		profile.IsAnonymous,
		profile.SignupMethod,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return util.ErrDuplicateEntry
		}
		return db.Classify(fmt.Errorf("failed to create profile %s: %w", profile.UserID, err))
	}
	return nil
}

// Update overwrites the contact fields of an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `UPDATE profiles
              SET nickname = $2, email = $3, phone = $4, photo_url = $5, first_name = $6,
                  last_name = $7, neighborhood = $8, is_anonymous = $9, updated_at = NOW()
              WHERE user_id = $1`
	result, err := r.q.ExecContext(ctx, query,
		profile.UserID,
		profile.Nickname,
		profile.Email,
		profile.Phone,
		profile.PhotoURL,
		profile.FirstName,
		profile.LastName,
		profile.Neighborhood,
		profile.IsAnonymous,
	)
	if err != nil {
		return db.Classify(fmt.Errorf("failed to update profile %s: %w", profile.UserID, err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating profile %s: %w", profile.UserID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
