package service

import "go-auth-api/internal/model"

// Decision is the outcome of the authorization gate.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Authorize allows the caller only when its claim set carries a Role claim
// exactly equal to the required role. Roles are flat: Boss does not satisfy
// a Manager-only check.
func Authorize(requiredRole string, claims model.ClaimSet) Decision {
	role, ok := claims.Get(model.ClaimRole)
	if !ok || role != requiredRole {
		return Deny
	}
	return Allow
}

// Policy is a fixed-role requirement exposed under a name.
type Policy struct {
	Name string
	Role string
}

func (p Policy) Authorize(claims model.ClaimSet) Decision {
	return Authorize(p.Role, claims)
}

var BossOnly = Policy{Name: "boss_only", Role: model.RoleBoss}
