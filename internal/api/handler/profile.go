// internal/api/handler/profile.go
package handler

import (
	"log/slog"
	"net/http"

	"tochcoin-wallet/internal/api/middleware"
	"tochcoin-wallet/internal/api/respond"
	"tochcoin-wallet/internal/api/types"
	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/service"
)

// ProfileHandler handles profile registration.
type ProfileHandler struct {
	service service.RewardService
	logger  *slog.Logger
}

func NewProfileHandler(svc service.RewardService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// Register creates the caller's profile on first sign-in and merges contact fields after that.
// POST /v1/profiles
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterProfileRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	profile := &domain.Profile{
		UserID:       middleware.UserIDFrom(r.Context()),
		Nickname:     req.Nickname,
		Email:        req.Email,
		Phone:        req.Phone,
		PhotoURL:     req.PhotoURL,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Neighborhood: req.Neighborhood,
	}
	res, err := h.service.RegisterProfile(r.Context(), profile, domain.SignupMethod(req.Method))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	respond.JSON(w, h.logger, code, types.ProfileResponse{Profile: res.Profile, Created: res.Created, Reward: res.Reward})
}
