package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-auth-api/internal/model"
)

const refreshTokenBytes = 32

// TokenConfig carries the signing parameters explicitly; nothing here is
// read from the environment.
type TokenConfig struct {
	Secret           string
	Issuer           string
	Audience         string
	ValidateIssuer   bool
	ValidateAudience bool
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

// TokenService mints HS256 access tokens from claim sets and opaque random
// refresh tokens. It is stateless and safe to share across requests.
type TokenService struct {
	secret           []byte
	issuer           string
	audience         string
	validateIssuer   bool
	validateAudience bool
	accessTTL        time.Duration
	refreshTTL       time.Duration
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = time.Hour
	}

	return &TokenService{
		secret:           []byte(cfg.Secret),
		issuer:           cfg.Issuer,
		audience:         cfg.Audience,
		validateIssuer:   cfg.ValidateIssuer,
		validateAudience: cfg.ValidateAudience,
		accessTTL:        cfg.AccessTTL,
		refreshTTL:       cfg.RefreshTTL,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssueAccessToken signs the claim set into a token valid from now until
// now plus the access TTL. Issuer and audience are embedded as given, even
// when empty; whether they are checked later is the validator's policy.
func (s *TokenService) IssueAccessToken(claims model.ClaimSet, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Name: claims.Name(),
		Role: claims.Role(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken mints an opaque random token with no embedded claims.
func (s *TokenService) IssueRefreshToken(now time.Time) (string, time.Time, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), now.Add(s.refreshTTL), nil
}

// ValidateAccessToken fully validates a token (signature, structure,
// lifetime, plus issuer/audience when the policy toggles are on) and
// returns the embedded principal.
func (s *TokenService) ValidateAccessToken(tokenString string) (*model.AuthClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.validateIssuer {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.validateAudience {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &accessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid || claims.Name == "" {
		return nil, model.ErrInvalidToken
	}

	return &model.AuthClaims{Username: claims.Name, Role: claims.Role, TokenID: claims.ID}, nil
}

// ExtractExpiredPrincipal recovers the claim set from a token whose
// signature verifies but whose lifetime may have passed. Expiry is
// deliberately not checked; refresh has to work after the access token's
// natural death. A token signed with a non-HMAC method is rejected before
// the key is ever consulted.
func (s *TokenService) ExtractExpiredPrincipal(tokenString string) (model.ClaimSet, error) {
	claims := &accessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid {
		return nil, model.ErrInvalidSignature
	}

	if s.validateIssuer && claims.Issuer != s.issuer {
		return nil, model.ErrInvalidToken
	}
	if s.validateAudience && !containsAudience(claims.Audience, s.audience) {
		return nil, model.ErrInvalidToken
	}

	return model.ClaimSet{
		{Kind: model.ClaimName, Value: claims.Name},
		{Kind: model.ClaimRole, Value: claims.Role},
	}, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, model.ErrInvalidSignature
	}
	return s.secret, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, model.ErrInvalidSignature):
		return model.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.ErrTokenExpired
	default:
		return model.ErrInvalidToken
	}
}

func containsAudience(aud jwt.ClaimStrings, expected string) bool {
	for _, a := range aud {
		if a == expected {
			return true
		}
	}
	return false
}
