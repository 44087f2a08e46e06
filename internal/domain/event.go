// internal/domain/event.go
package domain

import (
	"time"

	"github.com/lib/pq"
)

// Sport is the kind of community event.
type Sport string

const (
	SportRunning Sport = "running"
	SportCycling Sport = "cycling"
	SportYoga    Sport = "yoga"
	SportWalking Sport = "walking"
	SportOther   Sport = "other"
)

// Valid reports whether s is a known sport.
func (s Sport) Valid() bool {
	switch s {
	case SportRunning, SportCycling, SportYoga, SportWalking, SportOther:
		return true
	}
	return false
}

// CommunityEvent is a user-created meetup. CreatorName is denormalized at write time.
type CommunityEvent struct {
	ID          string         `db:"id" json:"id"`
	CreatorID   string         `db:"creator_id" json:"creator_id"`
	CreatorName string         `db:"creator_name" json:"creator_name"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Sport       Sport          `db:"sport" json:"sport"`
	Date        time.Time      `db:"date" json:"date"`
	Lat         float64        `db:"lat" json:"lat"`
	Lon         float64        `db:"lon" json:"lon"`
	Attendees   pq.StringArray `db:"attendees" json:"attendees"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// IsActive reports whether the event has not happened yet at now.
func (e *CommunityEvent) IsActive(now time.Time) bool {
	return e.Date.After(now)
}

// HasAttendee reports whether userID already joined.
func (e *CommunityEvent) HasAttendee(userID string) bool {
	for _, a := range e.Attendees {
		if a == userID {
			return true
		}
	}
	return false
}
