// internal/repository/postgres/event_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/repository"
	"tochcoin-wallet/internal/util"
	"tochcoin-wallet/pkg/db"
)

const eventColumns = `id, creator_id, creator_name, title, description, sport, date, lat, lon, attendees, created_at`

// EventRepository implements repository.EventRepository for PostgreSQL.
type EventRepository struct {
	q repository.DBExecutor
}

// NewEventRepository creates an EventRepository bound to q.
func NewEventRepository(q repository.DBExecutor) *EventRepository {
	return &EventRepository{q: q}
}

// Create inserts a community event.
func (r *EventRepository) Create(ctx context.Context, event *domain.CommunityEvent) error {
	id := uuid.NewString()
	query := `INSERT INTO community_events (id, creator_id, creator_name, title, description, sport, date, lat, lon, attendees, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()) RETURNING created_at`
	err := r.q.QueryRowxContext(ctx, query,
		id,
		event.CreatorID,
		event.CreatorName,
		event.Title,
		event.Description,
		event.Sport,
		event.Date,
		event.Lat,
		event.Lon,
		event.Attendees,
	).Scan(&event.CreatedAt)
	if err != nil {
		return db.Classify(fmt.Errorf("failed to create event: %w", err))
	}
	event.ID = id
	return nil
}

// GetByID retrieves an event by id.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.CommunityEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, util.ErrNotFound
	}
	var event domain.CommunityEvent
	query := `SELECT ` + eventColumns + ` FROM community_events WHERE id = $1`
	if err := r.q.GetContext(ctx, &event, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, db.Classify(fmt.Errorf("failed to get event %s: %w", id, err))
	}
	return &event, nil
}

// CountActiveByCreator counts events by creatorID whose date is after now.
func (r *EventRepository) CountActiveByCreator(ctx context.Context, creatorID string, now time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM community_events WHERE creator_id = $1 AND date > $2`
	if err := r.q.GetContext(ctx, &count, query, creatorID, now); err != nil {
		return 0, db.Classify(fmt.Errorf("failed to count active events for %s: %w", creatorID, err))
	}
	return count, nil
}

// ListRecent returns the newest events first.
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]domain.CommunityEvent, error) {
	events := []domain.CommunityEvent{}
	query := `SELECT ` + eventColumns + ` FROM community_events ORDER BY created_at DESC LIMIT $1`
	if err := r.q.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, db.Classify(fmt.Errorf("failed to list events: %w", err))
	}
	return events, nil
}

// AddAttendee appends userID to the attendees of eventID unless already present.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID string) error {
	if _, err := uuid.Parse(eventID); err != nil {
		return util.ErrNotFound
	}
	query := `UPDATE community_events SET attendees = array_append(attendees, $2)
              WHERE id = $1 AND NOT ($2 = ANY(attendees))`
	result, err := r.q.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return db.Classify(fmt.Errorf("failed to join event %s: %w", eventID, err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after joining event %s: %w", eventID, err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists bool
	if err := r.q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM community_events WHERE id = $1)`, eventID); err != nil {
		return db.Classify(fmt.Errorf("failed to check event %s: %w", eventID, err))
	}
	if !exists {
		return util.ErrNotFound
	}
	return nil
}
