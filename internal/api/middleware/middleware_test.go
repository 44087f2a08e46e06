// internal/api/middleware/middleware_test.go
package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tochcoin-wallet/internal/api/auth"
	"tochcoin-wallet/internal/idempotency"
	"tochcoin-wallet/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(UserIDFrom(r.Context()) + "/" + RoleFrom(r.Context())))
}

func TestAuthenticate(t *testing.T) {
	verifier, err := auth.NewVerifier("secret", "tochcoin")
	require.NoError(t, err)
	h := Authenticate(verifier, discardLogger())(http.HandlerFunc(echoUser))

	token, err := verifier.Issue("u1", "member", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"Valid", "Bearer " + token, http.StatusOK},
		{"LowercaseScheme", "bearer " + token, http.StatusOK},
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Basic " + token, http.StatusUnauthorized},
		{"EmptyToken", "Bearer ", http.StatusUnauthorized},
		{"Garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/wallet", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "u1/member", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(auth.RoleAdmin, discardLogger())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), "u1", "member")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), "root", auth.RoleAdmin)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewRateLimiter(0.001, 1, time.Minute), discardLogger())(http.HandlerFunc(echoUser))

	call := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), userID, ""))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("u1"))
	assert.Equal(t, http.StatusTooManyRequests, call("u1"))
	assert.Equal(t, http.StatusOK, call("u2"))
}

// memoryIdempotencyStore is an in-process IdempotencyStore.
type memoryIdempotencyStore struct {
	mu        sync.Mutex
	responses map[string]idempotency.CachedResponse
	locks     map[string]bool
	getErr    error
	// beforeLock runs once, outside the mutex, before the next Lock call.
	beforeLock func()
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{responses: map[string]idempotency.CachedResponse{}, locks: map[string]bool{}}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (*idempotency.CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	resp, ok := s.responses[key]
	if !ok {
		return nil, nil
	}
	return &resp, nil
}

func (s *memoryIdempotencyStore) Save(ctx context.Context, key string, resp idempotency.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[key] = resp
	return nil
}

func (s *memoryIdempotencyStore) Lock(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	hook := s.beforeLock
	s.beforeLock = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	return true, nil
}

func (s *memoryIdempotencyStore) Unlock(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

func TestIdempotency(t *testing.T) {
	newRequestWithBody := func(userID, key, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/wallet/redemptions", strings.NewReader(body))
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		return req.WithContext(WithIdentity(req.Context(), userID, ""))
	}
	newRequest := func(userID, key string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/wallet/redemptions", nil)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		return req.WithContext(WithIdentity(req.Context(), userID, ""))
	}

	t.Run("ReplaysStoredResponse", func(t *testing.T) {
		store := newMemoryIdempotencyStore()
		calls := 0
		h := Idempotency(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"new_balance":3}`))
		}))

		first := httptest.NewRecorder()
		h.ServeHTTP(first, newRequest("u1", "k1"))
		second := httptest.NewRecorder()
		h.ServeHTTP(second, newRequest("u1", "k1"))

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, `{"new_balance":3}`, second.Body.String())
		assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
		assert.Empty(t, store.locks)

		other := httptest.NewRecorder()
		h.ServeHTTP(other, newRequest("u2", "k1"))
		assert.Equal(t, 2, calls)
	})

	t.Run("WithoutKeyAlwaysRuns", func(t *testing.T) {
		calls := 0
		h := Idempotency(newMemoryIdempotencyStore(), discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		h.ServeHTTP(httptest.NewRecorder(), newRequest("u1", ""))
		h.ServeHTTP(httptest.NewRecorder(), newRequest("u1", ""))
		assert.Equal(t, 2, calls)
	})

	t.Run("RetryableFailuresAreNotStored", func(t *testing.T) {
		store := newMemoryIdempotencyStore()
		codes := []int{http.StatusServiceUnavailable, http.StatusConflict, http.StatusCreated}
		calls := 0
		h := Idempotency(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(codes[calls])
			calls++
		}))

		for range codes {
			h.ServeHTTP(httptest.NewRecorder(), newRequest("u1", "k1"))
		}
		assert.Equal(t, 3, calls)
		assert.Len(t, store.responses, 1)
	})

	t.Run("CompletedBetweenLookupAndLockIsReplayed", func(t *testing.T) {
		store := newMemoryIdempotencyStore()
		calls := 0
		h := Idempotency(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"new_balance":2}`))
		}))

		first := httptest.NewRecorder()
		store.beforeLock = func() {
			h.ServeHTTP(first, newRequest("u1", "k1"))
		}
		second := httptest.NewRecorder()
		h.ServeHTTP(second, newRequest("u1", "k1"))

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, `{"new_balance":2}`, second.Body.String())
		assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
		assert.Empty(t, store.locks)
	})

	t.Run("ReusedKeyWithDifferentBodyIsRejected", func(t *testing.T) {
		store := newMemoryIdempotencyStore()
		var bodies []string
		h := Idempotency(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			bodies = append(bodies, string(raw))
			w.WriteHeader(http.StatusCreated)
		}))

		first := httptest.NewRecorder()
		h.ServeHTTP(first, newRequestWithBody("u1", "k1", `{"amount": 3}`))
		same := httptest.NewRecorder()
		h.ServeHTTP(same, newRequestWithBody("u1", "k1", `{"amount": 3}`))
		changed := httptest.NewRecorder()
		h.ServeHTTP(changed, newRequestWithBody("u1", "k1", `{"amount": 30}`))

		assert.Equal(t, []string{`{"amount": 3}`}, bodies)
		assert.Equal(t, http.StatusCreated, same.Code)
		assert.Equal(t, "true", same.Header().Get(ReplayedHeader))
		assert.Equal(t, http.StatusUnprocessableEntity, changed.Code)
		assert.Empty(t, changed.Header().Get(ReplayedHeader))
	})

	t.Run("InFlightKeyIsRejected", func(t *testing.T) {
		store := newMemoryIdempotencyStore()
		key := idempotency.Key("u1", http.MethodPost+":/v1/wallet/redemptions:k1")
		store.locks[key] = true
		h := Idempotency(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("u1", "k1"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("StoreFailureFailsOpen", func(t *testing.T) {
		store := newMemoryIdempotencyStore()
		store.getErr = errors.New("redis: connection refused")
		calls := 0
		h := Idempotency(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))

		h.ServeHTTP(httptest.NewRecorder(), newRequest("u1", "k1"))
		assert.Equal(t, 1, calls)
	})

	t.Run("NilStorePassesThrough", func(t *testing.T) {
		calls := 0
		h := Idempotency(nil, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		h.ServeHTTP(httptest.NewRecorder(), newRequest("u1", "k1"))
		assert.Equal(t, 1, calls)
	})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/events/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/events/def", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/v1/events/{eventId}", "404")))
}
