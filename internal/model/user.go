package model

import "time"

type User struct {
	ID                    int64      `json:"id"`
	Name                  string     `json:"name"`
	Username              string     `json:"username"`
	PasswordHash          string     `json:"-"`
	Role                  string     `json:"role"`
	RefreshToken          *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// HasActiveSession reports whether the user holds a refresh token that has
// not yet expired at the given instant.
func (u User) HasActiveSession(now time.Time) bool {
	return u.RefreshToken != nil && u.RefreshTokenExpiresAt != nil && u.RefreshTokenExpiresAt.After(now)
}

type AuthUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
