package event

type Type string

const (
	TypeUserLogin       Type = "user.login"
	TypeLoginDenied     Type = "user.login_denied"
	TypeTokenRefreshed  Type = "token.refreshed"
	TypeRefreshDenied   Type = "token.refresh_denied"
	TypeSessionRevoked  Type = "session.revoked"
	TypeActionPerformed Type = "action.performed"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

// AuthPayload describes the subject of an authentication event.
type AuthPayload struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	IP       string `json:"ip,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
