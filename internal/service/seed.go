package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-auth-api/internal/model"
)

// DemoPassword is the secret every seeded demo account logs in with.
const DemoPassword = "P@ssw0rd!"

var demoUsers = []model.User{
	{ID: 1, Name: "John Wormald", Username: "johnw", Role: model.RoleBoss},
	{ID: 2, Name: "Heather Wormald", Username: "heth", Role: model.RoleManager},
	{ID: 3, Name: "Hamish Wormald", Username: "mish", Role: model.RoleDeveloper},
	{ID: 4, Name: "Harry Wormald", Username: "harry", Role: model.RoleDeveloper},
	{ID: 5, Name: "Rosie Wormald", Username: "rosie", Role: "Our Pet Dog"},
}

// SeedDemoUsers loads the demo accounts into the credential store. Upsert
// keys on username, so re-running against a seeded store is harmless.
func SeedDemoUsers(ctx context.Context, store CredentialStore) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now().UTC()
	for _, user := range demoUsers {
		user.PasswordHash = string(hash)
		user.CreatedAt = now
		user.UpdatedAt = now
		if err := store.Upsert(ctx, user); err != nil {
			return fmt.Errorf("seed user %q: %w", user.Username, err)
		}
	}

	return nil
}
