// internal/api/middleware/idempotency.go
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"tochcoin-wallet/internal/api/respond"
	"tochcoin-wallet/internal/idempotency"
	"tochcoin-wallet/internal/util"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "X-Idempotency-Replayed"

	maxIdempotentBody = 1 << 20
)

// IdempotencyStore is implemented by *idempotency.Cache.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*idempotency.CachedResponse, error)
	Save(ctx context.Context, key string, resp idempotency.CachedResponse) error
	Lock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// responseRecorder copies what the handler writes so it can be stored.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a caller repeats an Idempotency-Key, so the
// handler runs at most once per key. A key reused with a different body is rejected.
// Requests without the header pass through. When the store fails the request is served
// without the guarantee.
func Idempotency(store IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(IdempotencyKeyHeader)
			if header == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := idempotency.Key(UserIDFrom(ctx), r.Method+":"+r.URL.Path+":"+header)

			requestHash, err := hashBody(w, r)
			if err != nil {
				respond.Error(w, logger, util.ErrInvalidInput)
				return
			}

			cached, err := store.Get(ctx, key)
			if err != nil {
				logger.Error("idempotency lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if cached != nil {
				replay(w, logger, cached, requestHash, UserIDFrom(ctx))
				return
			}

			locked, err := store.Lock(ctx, key)
			if err != nil {
				logger.Error("idempotency lock failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !locked {
				respond.Error(w, logger, util.ErrTransactionConflict)
				return
			}
			defer func() {
				if err := store.Unlock(context.WithoutCancel(ctx), key); err != nil {
					logger.Error("idempotency unlock failed", "error", err)
				}
			}()

			// The previous holder may have finished between the lookup and the lock.
			cached, err = store.Get(ctx, key)
			if err != nil {
				logger.Error("idempotency lookup failed", "error", err)
				respond.Error(w, logger, util.ErrTransactionConflict)
				return
			}
			if cached != nil {
				replay(w, logger, cached, requestHash, UserIDFrom(ctx))
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(recorder, r)

			// Server errors and conflicts are retryable, so they are not pinned to the key.
			if recorder.statusCode >= http.StatusInternalServerError || recorder.statusCode == http.StatusConflict {
				return
			}
			if err := store.Save(context.WithoutCancel(ctx), key, idempotency.CachedResponse{
				StatusCode:  recorder.statusCode,
				Body:        recorder.body.Bytes(),
				RequestHash: requestHash,
			}); err != nil {
				logger.Error("idempotency save failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, logger *slog.Logger, cached *idempotency.CachedResponse, requestHash, userID string) {
	if cached.RequestHash != "" && cached.RequestHash != requestHash {
		logger.Info("idempotency key reused with a different body", "user_id", userID)
		respond.Error(w, logger, util.ErrIdempotencyKeyReused)
		return
	}
	logger.Info("idempotency cache hit", "user_id", userID)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

// hashBody reads the request body, puts it back for the handler and returns its SHA-256.
func hashBody(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Body == nil {
		return hex.EncodeToString(sha256.New().Sum(nil)), nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
