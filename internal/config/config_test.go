package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, 30*time.Minute, cfg.JWTAccessTTL)
	require.Equal(t, time.Hour, cfg.RefreshTTL)
	require.False(t, cfg.JWTValidateIssuer)
	require.False(t, cfg.JWTValidateAudience)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.Equal(t, 100, cfg.RateLimitRPM)
	require.Equal(t, 10, cfg.AuthRateLimitRPM)
	require.False(t, cfg.SeedDemoUsers)
	require.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REFRESH_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SEED_DEMO_USERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.ServerPort)
	require.Equal(t, 5*time.Minute, cfg.JWTAccessTTL)
	require.Equal(t, 2*time.Hour, cfg.RefreshTTL)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	require.True(t, cfg.SeedDemoUsers)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_IssuerPolicy(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		ServerPort:        "8080",
		RequestTimeout:    time.Second,
		JWTSecret:         "s",
		JWTAccessTTL:      time.Minute,
		RefreshTTL:        time.Hour,
		JWTValidateIssuer: true,
	}
	require.Error(t, cfg.Validate())

	cfg.JWTIssuer = "go-auth-api"
	require.NoError(t, cfg.Validate())

	cfg.JWTValidateAudience = true
	require.Error(t, cfg.Validate())

	cfg.JWTAudience = "go-auth-api-clients"
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.JWTAccessTTL)
}
