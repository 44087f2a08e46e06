// internal/api/respond/respond.go
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tochcoin-wallet/internal/util"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, logger *slog.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Error maps err to a status code and a message that is safe to show. Errors that
// map to 500 are logged since the client never sees their details.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled service error", "status", code, "error", err)
	}
	JSON(w, logger, code, ErrorResponse{Error: util.UserMessage(err)})
}

// Invalid writes a 400 listing the rejected fields.
func Invalid(w http.ResponseWriter, logger *slog.Logger, details []ValidationError) {
	JSON(w, logger, http.StatusBadRequest, ErrorResponse{
		Error:   util.UserMessage(util.ErrInvalidInput),
		Details: details,
	})
}

// StatusFor returns the HTTP status code for err.
func StatusFor(err error) int {
	switch {
	case util.IsError(err, util.ErrInvalidInput):
		return http.StatusBadRequest
	case util.IsError(err, util.ErrUnauthorized):
		return http.StatusUnauthorized
	case util.IsError(err, util.ErrForbidden):
		return http.StatusForbidden
	case util.IsError(err, util.ErrNotFound):
		return http.StatusNotFound
	case util.IsError(err, util.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case util.IsError(err, util.ErrPreconditionFailed),
		util.IsError(err, util.ErrTransactionConflict),
		util.IsError(err, util.ErrDuplicateEntry):
		return http.StatusConflict
	case util.IsError(err, util.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case util.IsError(err, util.ErrIdempotencyKeyReused):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
