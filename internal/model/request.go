package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest mirrors the token pair handed out at login. Username is
// optional; when present it must match the identity embedded in the access
// token, which guards against a forged token body asserting someone else.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username,omitempty"`
}

type AuditQuery struct {
	Action   string
	Username string
	Status   string
	Page     int
	Limit    int
}
