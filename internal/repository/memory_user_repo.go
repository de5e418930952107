package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-auth-api/internal/model"
)

// MemoryUserRepository keeps user records in process memory. It backs the
// demo mode (no DATABASE_URL) and the tests, with the same rotation
// semantics as the Postgres store: the single mutex makes every
// compare-then-write atomic per store.
type MemoryUserRepository struct {
	mu     sync.Mutex
	byUser map[string]*model.User
	byID   map[int64]*model.User
	nextID int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byUser: map[string]*model.User{},
		byID:   map[int64]*model.User{},
		nextID: 1,
	}
}

func (r *MemoryUserRepository) FindByCredentials(_ context.Context, username string, secret string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.byUser[userKey(username)]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	return *u, nil
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.byUser[userKey(username)]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return *u, nil
}

func (r *MemoryUserRepository) Upsert(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := userKey(u.Username)
	if existing, exists := r.byUser[key]; exists {
		u.ID = existing.ID
		u.RefreshToken = existing.RefreshToken
		u.RefreshTokenExpiresAt = existing.RefreshTokenExpiresAt
	} else if u.ID == 0 {
		u.ID = r.nextID
	}
	if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}

	stored := u
	r.byUser[key] = &stored
	r.byID[stored.ID] = &stored
	return nil
}

func (r *MemoryUserRepository) SetRefreshToken(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.byID[userID]
	if !exists {
		return model.ErrUserNotFound
	}

	u.RefreshToken = &token
	u.RefreshTokenExpiresAt = &expiresAt
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryUserRepository) RotateRefreshToken(_ context.Context, userID int64, current string, next string, expiresAt time.Time, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.byID[userID]
	if !exists {
		return model.ErrUserNotFound
	}

	if u.RefreshToken == nil || *u.RefreshToken != current ||
		u.RefreshTokenExpiresAt == nil || !u.RefreshTokenExpiresAt.After(now) {
		return model.ErrRefreshTokenMismatch
	}

	u.RefreshToken = &next
	u.RefreshTokenExpiresAt = &expiresAt
	u.UpdatedAt = now
	return nil
}

func (r *MemoryUserRepository) ClearRefreshToken(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.byID[userID]
	if !exists {
		return model.ErrUserNotFound
	}

	u.RefreshToken = nil
	u.RefreshTokenExpiresAt = nil
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser), nil
}

func userKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
