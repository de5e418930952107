package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"go-auth-api/internal/model"
)

// UserRepository is the Postgres credential store. The refresh token lives
// on the user row, so rotation is a single conditional UPDATE.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, name, username, password_hash, role,
	refresh_token, refresh_token_expires_at, created_at, updated_at`

func (r *UserRepository) FindByCredentials(ctx context.Context, username string, secret string) (model.User, error) {
	u, err := r.FindByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users WHERE lower(username) = lower($1)`, strings.TrimSpace(username)).
		Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role,
			&u.RefreshToken, &u.RefreshTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Upsert(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, username, password_hash, role,
		                    refresh_token, refresh_token_expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (username) DO UPDATE SET
		   name = EXCLUDED.name,
		   password_hash = EXCLUDED.password_hash,
		   role = EXCLUDED.role,
		   updated_at = EXCLUDED.updated_at`,
		u.ID, u.Name, u.Username, u.PasswordHash, u.Role,
		u.RefreshToken, u.RefreshTokenExpiresAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = $4
		 WHERE id = $1`,
		userID, token, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken replaces the stored refresh token only if the current
// one still matches and has not expired. The WHERE clause is the whole
// replay guard: a concurrent rotation that already consumed the token
// leaves nothing for this one to match.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, userID int64, current string, next string, expiresAt time.Time, now time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $3, refresh_token_expires_at = $4, updated_at = $5
		 WHERE id = $1 AND refresh_token = $2 AND refresh_token_expires_at > $5`,
		userID, current, next, expiresAt, now)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRefreshTokenMismatch
	}
	return nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = $2
		 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
