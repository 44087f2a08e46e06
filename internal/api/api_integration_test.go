// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "tochcoin-wallet/internal"
	"tochcoin-wallet/internal/api"
	"tochcoin-wallet/internal/api/auth"
	"tochcoin-wallet/internal/api/handler"
	"tochcoin-wallet/internal/api/middleware"
	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/idempotency"
	"tochcoin-wallet/internal/notify"
	"tochcoin-wallet/internal/repository/memory"
	"tochcoin-wallet/internal/service"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

func TestMain(m *testing.M) {
	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}
	testServer = httptest.NewServer(testApp.HTTPHandler)

	code := m.Run()

	testServer.Close()
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// setupEnvVars runs the application on in-memory storage with no external services.
func setupEnvVars() {
	os.Setenv("STORAGE_DRIVER", "memory")
	os.Setenv("JWT_SECRET", "integration-secret")
	os.Setenv("JWT_ISSUER", "tochcoin")
	os.Setenv("RECONCILE_INTERVAL", "0s")
	os.Setenv("RATE_LIMIT_RPS", "10000")
	os.Setenv("RATE_LIMIT_BURST", "10000")
	os.Setenv("LOG_LEVEL", "error")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("RABBITMQ_URL")
}

func newUserID() string {
	return "user-" + uuid.NewString()
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := testApp.Verifier.Issue(userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

// makeRequest sends an HTTP request to the test server and returns the status and body.
func makeRequest(t *testing.T, method, path, bearer, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, testServer.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(respBody)
}

func balanceOf(t *testing.T, bearer string) int64 {
	t.Helper()
	code, body := makeRequest(t, http.MethodGet, "/v1/wallet", bearer, "")
	require.Equal(t, http.StatusOK, code, body)
	var wallet struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &wallet))
	return wallet.Balance
}

func TestHealthAndMetrics(t *testing.T) {
	code, body := makeRequest(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	code, body = makeRequest(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "tochcoin_ledger_mismatches")
}

func TestAuthenticationRequired(t *testing.T) {
	code, _ := makeRequest(t, http.MethodGet, "/v1/wallet", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	member := token(t, newUserID(), "member")
	code, _ = makeRequest(t, http.MethodPost, "/v1/admin/wallets/someone/adjustments", member,
		`{"amount": 5, "type": "credit", "description": "nope"}`)
	assert.Equal(t, http.StatusForbidden, code)
}

// Two clients register the same fresh identity at the same time; exactly one bonus is paid.
func TestConcurrentSignupCreditsOnceIntegration(t *testing.T) {
	userID := newUserID()
	bearer := token(t, userID, "member")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		codes   []int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _ := makeRequest(t, http.MethodPost, "/v1/profiles", bearer, `{"method": "google", "nickname": "Toche"}`)
			mu.Lock()
			defer mu.Unlock()
			codes = append(codes, code)
			if code == http.StatusCreated {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusCreated, http.StatusOK}, code)
	}
	assert.Equal(t, int64(5), balanceOf(t, bearer))

	code, body := makeRequest(t, http.MethodGet, "/v1/wallet/transactions", bearer, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, strings.Count(body, `"reward_signup"`))
}

// A user with a future event cannot create another one and is not credited again.
func TestActiveEventGateIntegration(t *testing.T) {
	bearer := token(t, newUserID(), "member")
	date := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)

	code, body := makeRequest(t, http.MethodPost, "/v1/events", bearer,
		fmt.Sprintf(`{"title": "Bici por la costanera", "sport": "cycling", "date": %q}`, date))
	require.Equal(t, http.StatusCreated, code, body)
	assert.Contains(t, body, `"¡Evento Creado!"`)

	code, body = makeRequest(t, http.MethodPost, "/v1/events", bearer,
		fmt.Sprintf(`{"title": "Otra salida", "sport": "cycling", "date": %q}`, date))
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body, "Ya tienes un evento activo")

	assert.Equal(t, int64(2), balanceOf(t, bearer))
}

func TestRedeemAndAdjustIntegration(t *testing.T) {
	userID := newUserID()
	bearer := token(t, userID, "member")
	admin := token(t, newUserID(), auth.RoleAdmin)

	code, body := makeRequest(t, http.MethodPost, "/v1/admin/wallets/"+userID+"/adjustments", admin,
		`{"amount": 20, "type": "credit", "description": "Premio torneo"}`)
	require.Equal(t, http.StatusCreated, code, body)

	code, body = makeRequest(t, http.MethodPost, "/v1/wallet/redemptions", bearer,
		`{"amount": 15, "description": "Entrada al gimnasio"}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Contains(t, body, `"new_balance":5`)

	code, body = makeRequest(t, http.MethodPost, "/v1/wallet/redemptions", bearer,
		`{"amount": 6, "description": "Entrada al gimnasio"}`)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Contains(t, body, "Fondos insuficientes")

	assert.Equal(t, int64(5), balanceOf(t, bearer))
}

type mapIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotency.CachedResponse
	locks   map[string]bool
}

func (s *mapIdempotencyStore) Get(ctx context.Context, key string) (*idempotency.CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp, ok := s.entries[key]; ok {
		return &resp, nil
	}
	return nil, nil
}

func (s *mapIdempotencyStore) Save(ctx context.Context, key string, resp idempotency.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = resp
	return nil
}

func (s *mapIdempotencyStore) Lock(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	return true, nil
}

func (s *mapIdempotencyStore) Unlock(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

func TestRedemptionReplayedWithIdempotencyKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	notifier := notify.NewLogNotifier(logger)
	wallets := service.NewWalletService(store, notifier, logger)
	rewards := service.NewRewardService(store, wallets, notifier, service.RewardConfig{SignupBonus: 5, EventCreationReward: 2}, logger)
	verifier, err := auth.NewVerifier("replay-secret", "tochcoin")
	require.NoError(t, err)

	router := api.NewRouter(api.RouterDeps{
		Wallets:  handler.NewWalletHandler(wallets, logger),
		Profiles: handler.NewProfileHandler(rewards, logger),
		Events:   handler.NewEventHandler(rewards, logger),
		Verifier: verifier,
		Idempotency: &mapIdempotencyStore{
			entries: map[string]idempotency.CachedResponse{},
			locks:   map[string]bool{},
		},
	}, logger)

	_, err = rewards.RegisterProfile(context.Background(), &domain.Profile{UserID: "u1"}, domain.SignupMethodPassword)
	require.NoError(t, err)
	tok, err := verifier.Issue("u1", "member", time.Hour)
	require.NoError(t, err)

	redeem := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/wallet/redemptions", strings.NewReader(`{"amount": 3, "description": "Bebida"}`))
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set(middleware.IdempotencyKeyHeader, "redeem-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := redeem()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := redeem()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	wallet, err := wallets.GetOrCreateWallet(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), wallet.Balance)
}
