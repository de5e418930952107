package service

import "go-auth-api/internal/model"

// BuildClaims converts a validated user record into its identity claim set.
// Pure; order is fixed (Name first, then Role) so tokens built from equal
// records are identical.
func BuildClaims(user model.User) model.ClaimSet {
	return model.ClaimSet{
		{Kind: model.ClaimName, Value: user.Username},
		{Kind: model.ClaimRole, Value: user.Role},
	}
}
