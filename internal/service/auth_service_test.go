package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-auth-api/internal/model"
	"go-auth-api/internal/repository"
	"go-auth-api/pkg/apierror"
)

func newTestAuthService(t *testing.T) (*AuthService, *repository.MemoryUserRepository) {
	t.Helper()

	store := repository.NewMemoryUserRepository()
	seedTestUser(t, store, 1, "John Wormald", "johnw", model.RoleBoss)
	seedTestUser(t, store, 2, "Heather Wormald", "heth", model.RoleManager)

	tokens := newTestTokenService(t, TokenConfig{
		AccessTTL:  30 * time.Minute,
		RefreshTTL: time.Hour,
	})

	return NewAuthService(store, tokens), store
}

func seedTestUser(t *testing.T, store CredentialStore, id int64, name string, username string, role string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("P@ssw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, store.Upsert(context.Background(), model.User{
		ID:           id,
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func requireAPIStatus(t *testing.T, err error, status int) {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.HTTPStatus)
}

func TestLogin_IssuesPairAndStoresRefreshToken(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuthService(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64((30 * time.Minute).Seconds()), pair.ExpiresIn)

	claims, err := svc.tokens.ExtractExpiredPrincipal(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "johnw", claims.Name())
	require.Equal(t, model.RoleBoss, claims.Role())

	stored, err := store.FindByUsername(context.Background(), "johnw")
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	require.Equal(t, pair.RefreshToken, *stored.RefreshToken)
	require.NotNil(t, stored.RefreshTokenExpiresAt)
	require.Equal(t, now.Add(time.Hour), *stored.RefreshTokenExpiresAt)
}

func TestLogin_OverwritesPriorSession(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuthService(t)

	first, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	second, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	stored, err := store.FindByUsername(context.Background(), "johnw")
	require.NoError(t, err)
	require.Equal(t, second.RefreshToken, *stored.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "johnw", "wrong")
	requireAPIStatus(t, err, 401)

	stored, err := store.FindByUsername(context.Background(), "johnw")
	require.NoError(t, err)
	require.Nil(t, stored.RefreshToken)
}

func TestLogin_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nobody", "P@ssw0rd!")
	requireAPIStatus(t, err, 401)
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "", "P@ssw0rd!")
	requireAPIStatus(t, err, 400)

	_, err = svc.Login(context.Background(), "johnw", "")
	requireAPIStatus(t, err, 400)
}

func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "")
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token is dead for good.
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "")
	requireAPIStatus(t, err, 400)

	// The rotated one still works.
	_, err = svc.Refresh(context.Background(), rotated.AccessToken, rotated.RefreshToken, "")
	require.NoError(t, err)
}

func TestRefresh_WorksWithExpiredAccessToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	loginAt := time.Now().UTC().Add(-45 * time.Minute)
	svc.now = func() time.Time { return loginAt }

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	// Access token expired 15 minutes ago; refresh token has 15 left.
	svc.now = func() time.Time { return time.Now().UTC() }

	_, err = svc.tokens.ValidateAccessToken(pair.AccessToken)
	require.ErrorIs(t, err, model.ErrTokenExpired)

	rotated, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "")
	require.NoError(t, err)

	_, err = svc.tokens.ValidateAccessToken(rotated.AccessToken)
	require.NoError(t, err)
}

func TestRefresh_ExpiredSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	loginAt := time.Now().UTC().Add(-2 * time.Hour)
	svc.now = func() time.Time { return loginAt }

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC() }

	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "")
	requireAPIStatus(t, err, 400)
}

func TestRefresh_ForeignSigningKey(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuthService(t)

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	forged := newTestTokenService(t, TokenConfig{Secret: "attacker-key"})
	forgedToken, err := forged.IssueAccessToken(bossClaims(), time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), forgedToken, pair.RefreshToken, "")
	requireAPIStatus(t, err, 400)

	// No mutation happened: the legitimate session is intact.
	stored, err := store.FindByUsername(context.Background(), "johnw")
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, *stored.RefreshToken)
}

func TestRefresh_CallerIdentityMismatch(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "heth")
	requireAPIStatus(t, err, 400)

	// Matching caller identity proceeds.
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "johnw")
	require.NoError(t, err)
}

func TestRefresh_WrongUsersRefreshToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	bossPair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	managerPair, err := svc.Login(context.Background(), "heth", "P@ssw0rd!")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), bossPair.AccessToken, managerPair.RefreshToken, "")
	requireAPIStatus(t, err, 400)
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuthService(t)

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), "johnw"))

	stored, err := store.FindByUsername(context.Background(), "johnw")
	require.NoError(t, err)
	require.Nil(t, stored.RefreshToken)
	require.Nil(t, stored.RefreshTokenExpiresAt)

	// Revoking again is a deterministic no-op.
	require.NoError(t, svc.Revoke(context.Background(), "johnw"))

	// The revoked refresh token no longer rotates.
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "")
	requireAPIStatus(t, err, 400)
}

func TestRevoke_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	err := svc.Revoke(context.Background(), "nobody")
	requireAPIStatus(t, err, 400)
}

func TestConcurrentRefresh_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	pair, err := svc.Login(context.Background(), "johnw", "P@ssw0rd!")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireAPIStatus(t, err, 400)
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent refresh may consume the token")
}
