//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-auth-api/internal/config"
	"go-auth-api/internal/event"
	"go-auth-api/internal/handler"
	"go-auth-api/internal/middleware"
	"go-auth-api/internal/model"
	"go-auth-api/internal/repository"
	"go-auth-api/internal/router"
	"go-auth-api/internal/service"
)

// newTestServer stands up the full HTTP stack on in-memory stores with the
// demo accounts seeded, mirroring how the app wires itself at boot.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:       "0",
		RequestTimeout:   10 * time.Second,
		JWTSecret:        "integration-test-secret",
		JWTAccessTTL:     30 * time.Minute,
		RefreshTTL:       time.Hour,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	userStore := repository.NewMemoryUserRepository()
	require.NoError(t, service.SeedDemoUsers(context.Background(), userStore))
	auditStore := repository.NewMemoryAuditRepository()

	tokenService, err := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	require.NoError(t, err)

	authService := service.NewAuthService(userStore, tokenService)
	auditService := service.NewAuditService(auditStore)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	bus := event.NewBus()
	recorderCtx, recorderCancel := context.WithCancel(context.Background())
	go auditService.RecordEvents(recorderCtx, bus)
	t.Cleanup(recorderCancel)

	srv := httptest.NewServer(router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, bus),
		Action: handler.NewActionHandler(),
		Audit:  handler.NewAuditHandler(auditService),
	}))
	t.Cleanup(srv.Close)

	return srv
}

const (
	waitFor = 5 * time.Second
	tick    = 50 * time.Millisecond
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func doJSON(t *testing.T, method string, url string, body any, headers map[string]string) (int, apiEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiEnvelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	}

	return resp.StatusCode, envelope
}

func login(t *testing.T, baseURL string, username string, password string) model.TokenPair {
	t.Helper()

	status, envelope := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", model.LoginRequest{
		Username: username,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, envelope.Success)

	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(envelope.Data, &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	return pair
}

func bearer(pair model.TokenPair) map[string]string {
	return map[string]string{"Authorization": "Bearer " + pair.AccessToken}
}

func unmarshalData(envelope apiEnvelope, target any) error {
	return json.Unmarshal(envelope.Data, target)
}
