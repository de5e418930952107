package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-auth-api/internal/model"
	"go-auth-api/pkg/apierror"
)

// CredentialStore is the contract the auth core consumes; the storage
// technology behind it is none of the core's business. The refresh token
// field is mutated only through the Set/Rotate/Clear operations, and
// Rotate commits only if the stored token still matches the one presented
// (compare-and-swap, so two concurrent refreshes cannot both consume the
// same token).
type CredentialStore interface {
	FindByCredentials(ctx context.Context, username string, secret string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	Upsert(ctx context.Context, user model.User) error
	SetRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, userID int64, current string, next string, expiresAt time.Time, now time.Time) error
	ClearRefreshToken(ctx context.Context, userID int64) error
}

// AuthService owns the refresh session lifecycle: login issues a pair and
// stores the refresh token, refresh validates and rotates it, revoke
// clears it. The service itself is stateless; all shared state lives in
// the credential store.
type AuthService struct {
	store  CredentialStore
	tokens *TokenService
	now    func() time.Time
}

func NewAuthService(store CredentialStore, tokens *TokenService) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (model.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.TokenPair{}, apierror.New("BAD_REQUEST", "username and password are required", "", http.StatusBadRequest)
	}

	user, err := s.store.FindByCredentials(ctx, username, password)
	if errors.Is(err, model.ErrUserNotFound) || errors.Is(err, model.ErrInvalidCredentials) {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("look up credentials: %w", err)
	}

	return s.issueTokenPair(ctx, user, false, "")
}

// Refresh trades an expired access token plus its refresh token for a new
// pair. callerUsername is the identity the caller asserts about itself; when
// non-empty it must equal the Name claim recovered from the token, so a
// forged token body cannot rotate somebody else's session.
func (s *AuthService) Refresh(ctx context.Context, accessToken string, refreshToken string, callerUsername string) (model.TokenPair, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return model.TokenPair{}, apierror.New("BAD_REQUEST", "access_token and refresh_token are required", "", http.StatusBadRequest)
	}

	claims, err := s.tokens.ExtractExpiredPrincipal(accessToken)
	if err != nil {
		// Signature detail is folded into a generic 400 on purpose.
		return model.TokenPair{}, apierror.New("BAD_REQUEST", "invalid access token", "", http.StatusBadRequest)
	}

	name := claims.Name()
	if name == "" {
		return model.TokenPair{}, apierror.New("BAD_REQUEST", "access token carries no name claim", "", http.StatusBadRequest)
	}
	if caller := strings.TrimSpace(callerUsername); caller != "" && caller != name {
		return model.TokenPair{}, apierror.New("BAD_REQUEST", "token subject does not match caller", "", http.StatusBadRequest)
	}

	user, err := s.store.FindByUsername(ctx, name)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, apierror.New("BAD_REQUEST", "invalid refresh request", "", http.StatusBadRequest)
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("look up user for refresh: %w", err)
	}

	return s.issueTokenPair(ctx, user, true, refreshToken)
}

// Revoke clears the stored refresh session. Revoking a user with no active
// session is a successful no-op; only an unknown username is an error.
func (s *AuthService) Revoke(ctx context.Context, username string) error {
	user, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.New("BAD_REQUEST", "unknown user", "", http.StatusBadRequest)
	}
	if err != nil {
		return fmt.Errorf("look up user for revoke: %w", err)
	}

	if err := s.store.ClearRefreshToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ValidateToken verifies a live access token for the HTTP middleware.
func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, apierror.New("UNAUTHORIZED", "invalid or expired token", "", http.StatusUnauthorized)
	}
	return claims, nil
}

func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (model.AuthUser, error) {
	user, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AuthUser{}, apierror.New("NOT_FOUND", "user not found", username, http.StatusNotFound)
	}
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("look up user: %w", err)
	}

	return model.AuthUser{ID: user.ID, Name: user.Name, Username: user.Username, Role: user.Role}, nil
}

// issueTokenPair builds the claim set, signs the access token, mints a
// fresh refresh token and persists it. For a rotation the store write is a
// compare-and-swap against the token just consumed; exactly one of any
// concurrent rotations for the same session can win.
func (s *AuthService) issueTokenPair(ctx context.Context, user model.User, rotate bool, current string) (model.TokenPair, error) {
	claims := BuildClaims(user)
	now := s.now()

	accessToken, err := s.tokens.IssueAccessToken(claims, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(now)
	if err != nil {
		return model.TokenPair{}, err
	}

	if rotate {
		err = s.store.RotateRefreshToken(ctx, user.ID, current, refreshToken, expiresAt, now)
		if errors.Is(err, model.ErrRefreshTokenMismatch) {
			return model.TokenPair{}, apierror.New("BAD_REQUEST", "refresh token is not valid for this user", "", http.StatusBadRequest)
		}
	} else {
		err = s.store.SetRefreshToken(ctx, user.ID, refreshToken, expiresAt)
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
