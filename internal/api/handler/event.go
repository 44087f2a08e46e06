// internal/api/handler/event.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tochcoin-wallet/internal/api/middleware"
	"tochcoin-wallet/internal/api/respond"
	"tochcoin-wallet/internal/api/types"
	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/service"
)

// EventHandler handles community events.
type EventHandler struct {
	service service.RewardService
	logger  *slog.Logger
}

func NewEventHandler(svc service.RewardService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: svc, logger: logger}
}

// List returns the newest events.
// GET /v1/events?limit=N
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if limit == 0 {
		limit = service.DefaultEventsLimit
	}
	if limit > service.MaxEventsLimit {
		limit = service.MaxEventsLimit
	}

	events, err := h.service.ListEvents(r.Context(), limit)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, types.ListResponse[domain.CommunityEvent]{Data: events, Limit: limit})
}

// Create creates an event for the caller and grants the creation reward.
// POST /v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateEventRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	res, err := h.service.CreateEvent(r.Context(), middleware.UserIDFrom(r.Context()), service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Sport:       domain.Sport(req.Sport),
		Date:        req.Date,
		Lat:         req.Location.Lat,
		Lon:         req.Location.Lon,
	})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusCreated, types.EventResponse{Event: res.Event, Reward: res.Reward})
}

// Join adds the caller to the event's attendees.
// POST /v1/events/{eventId}/join
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.JoinEvent(r.Context(), chi.URLParam(r, "eventId"), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, event)
}
