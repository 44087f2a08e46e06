// internal/repository/event_repo.go
package repository

import (
	"context"
	"time"

	"tochcoin-wallet/internal/domain"
)

// EventRepository defines the interface for community event data operations.
type EventRepository interface {
	// Create stores the event, filling in ID and CreatedAt.
	Create(ctx context.Context, event *domain.CommunityEvent) error
	GetByID(ctx context.Context, id string) (*domain.CommunityEvent, error)
	// CountActiveByCreator counts events by creatorID dated after now.
	CountActiveByCreator(ctx context.Context, creatorID string, now time.Time) (int, error)
	// ListRecent returns the newest limit events by creation time.
	ListRecent(ctx context.Context, limit int) ([]domain.CommunityEvent, error)
	// AddAttendee adds userID to the event's attendees if it is not there yet.
	AddAttendee(ctx context.Context, eventID, userID string) error
}
