//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-auth-api/internal/model"
	"go-auth-api/internal/service"
)

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		pair := login(t, srv.URL, "johnw", service.DemoPassword)
		require.Equal(t, "Bearer", pair.TokenType)
		require.EqualValues(t, 1800, pair.ExpiresIn)
	})

	t.Run("wrong password", func(t *testing.T) {
		status, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", model.LoginRequest{
			Username: "johnw",
			Password: "wrong",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.False(t, envelope.Success)
		require.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", model.LoginRequest{
			Username: "nobody",
			Password: service.DemoPassword,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("missing fields", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", model.LoginRequest{
			Username: "johnw",
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "not-an-object", nil)
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestRefreshFlow(t *testing.T) {
	srv := newTestServer(t)

	pair := login(t, srv.URL, "heth", service.DemoPassword)

	status, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", model.RefreshRequest{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var rotated model.TokenPair
	require.NoError(t, unmarshalData(envelope, &rotated))
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	t.Run("replaying the consumed token fails", func(t *testing.T) {
		status, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", model.RefreshRequest{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "BAD_REQUEST", envelope.Error.Code)
	})

	t.Run("rotated token still works", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", model.RefreshRequest{
			AccessToken:  rotated.AccessToken,
			RefreshToken: rotated.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusOK, status)
	})
}

func TestRefresh_CallerIdentityMismatch(t *testing.T) {
	srv := newTestServer(t)

	pair := login(t, srv.URL, "johnw", service.DemoPassword)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", model.RefreshRequest{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Username:     "heth",
	}, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestRevokeFlow(t *testing.T) {
	srv := newTestServer(t)

	pair := login(t, srv.URL, "mish", service.DemoPassword)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/revoke", nil, bearer(pair))
	require.Equal(t, http.StatusNoContent, status)

	t.Run("revoked session no longer refreshes", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", model.RefreshRequest{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("revoking twice stays successful", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/revoke", nil, bearer(pair))
		require.Equal(t, http.StatusNoContent, status)
	})

	t.Run("revoke requires authentication", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/revoke", nil, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)

	pair := login(t, srv.URL, "rosie", service.DemoPassword)

	status, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/auth/me", nil, bearer(pair))
	require.Equal(t, http.StatusOK, status)

	var me model.AuthUser
	require.NoError(t, unmarshalData(envelope, &me))
	require.Equal(t, "rosie", me.Username)
	require.Equal(t, "Our Pet Dog", me.Role)
}

func TestAuditTrail(t *testing.T) {
	srv := newTestServer(t)

	// One success and one denial to land in the trail.
	bossPair := login(t, srv.URL, "johnw", service.DemoPassword)
	doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", model.LoginRequest{
		Username: "johnw",
		Password: "wrong",
	}, nil)

	require.Eventually(t, func() bool {
		status, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/audit", nil, bearer(bossPair))
		if status != http.StatusOK {
			return false
		}
		var entries []model.AuditEntry
		if err := unmarshalData(envelope, &entries); err != nil {
			return false
		}
		return len(entries) >= 2
	}, waitFor, tick)

	t.Run("audit is boss only", func(t *testing.T) {
		devPair := login(t, srv.URL, "mish", service.DemoPassword)
		status, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/audit", nil, bearer(devPair))
		require.Equal(t, http.StatusForbidden, status)
	})
}
