// internal/api/respond/respond_test.go
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tochcoin-wallet/internal/util"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{util.ErrInvalidInput, http.StatusBadRequest},
		{util.ErrUnauthorized, http.StatusUnauthorized},
		{util.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("join event x: %w", util.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("process transaction: %w", util.ErrInsufficientFunds), http.StatusPaymentRequired},
		{util.ErrActiveEventExists, http.StatusConflict},
		{util.ErrTransactionConflict, http.StatusConflict},
		{util.ErrDuplicateEntry, http.StatusConflict},
		{fmt.Errorf("%w: dial tcp", util.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("redeem: %w", util.ErrIdempotencyKeyReused), http.StatusUnprocessableEntity},
		{errors.New("pq: relation does not exist"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), errors.New("pq: password authentication failed for user admin"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, util.DefaultUserMessage, body.Error)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	Invalid(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), []ValidationError{{Field: "amount", Message: "amount is required"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"The request is invalid. Check the submitted values.","details":[{"field":"amount","message":"amount is required"}]}`, rec.Body.String())
}
