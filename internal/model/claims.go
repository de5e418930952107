package model

// Role labels are opaque strings compared for exact equality. The demo
// accounts use the labels below, but nothing restricts the set; "Our Pet
// Dog" is as valid a role as "Boss".
const (
	RoleBoss      = "Boss"
	RoleManager   = "Manager"
	RoleDeveloper = "Developer"
	RoleUser      = "User"
)

type ClaimKind string

const (
	ClaimName ClaimKind = "name"
	ClaimRole ClaimKind = "role"
)

type Claim struct {
	Kind  ClaimKind `json:"kind"`
	Value string    `json:"value"`
}

// ClaimSet is an ordered list of claims extracted from or destined for an
// access token.
type ClaimSet []Claim

// Get returns the value of the first claim of the given kind.
func (cs ClaimSet) Get(kind ClaimKind) (string, bool) {
	for _, c := range cs {
		if c.Kind == kind {
			return c.Value, true
		}
	}
	return "", false
}

func (cs ClaimSet) Name() string {
	v, _ := cs.Get(ClaimName)
	return v
}

func (cs ClaimSet) Role() string {
	v, _ := cs.Get(ClaimRole)
	return v
}

// AuthClaims is the validated principal attached to a request after the
// bearer token checks out.
type AuthClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	TokenID  string `json:"token_id"`
}

func (c *AuthClaims) ClaimSet() ClaimSet {
	return ClaimSet{
		{Kind: ClaimName, Value: c.Username},
		{Kind: ClaimRole, Value: c.Role},
	}
}
