// internal/api/handler/request.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tochcoin-wallet/internal/api/respond"
	"tochcoin-wallet/internal/util"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and validates it. On failure it writes a 400
// and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respond.Invalid(w, logger, []respond.ValidationError{{Field: "body", Message: decodeMessage(err)}})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			respond.Error(w, logger, err)
			return false
		}
		details := make([]respond.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, respond.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		respond.Invalid(w, logger, details)
		return false
	}
	return true
}

func decodeMessage(err error) string {
	var unmarshalErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &unmarshalErr):
		return unmarshalErr.Field + " has the wrong type"
	case strings.Contains(err.Error(), "amount"):
		return strings.TrimPrefix(err.Error(), "json: ")
	default:
		return "request body must be valid JSON"
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// queryLimit parses the optional limit query parameter. Zero means "use the default".
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, util.ErrInvalidInput
	}
	return limit, nil
}
