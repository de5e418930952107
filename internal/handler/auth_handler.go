package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-api/internal/event"
	"go-auth-api/internal/middleware"
	"go-auth-api/internal/model"
	"go-auth-api/internal/service"
	"go-auth-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	bus     event.Bus
}

func NewAuthHandler(service *service.AuthService, bus event.Bus) *AuthHandler {
	return &AuthHandler{service: service, bus: bus}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.publish(event.TypeLoginDenied, r, payload.Username, "", err.Error())
		writeError(w, err)
		return
	}

	h.publish(event.TypeUserLogin, r, payload.Username, "", "")
	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Refresh(r.Context(),
		strings.TrimSpace(payload.AccessToken),
		strings.TrimSpace(payload.RefreshToken),
		payload.Username)
	if err != nil {
		h.publish(event.TypeRefreshDenied, r, payload.Username, "", err.Error())
		writeError(w, err)
		return
	}

	h.publish(event.TypeTokenRefreshed, r, payload.Username, "", "")
	writeSuccess(w, http.StatusOK, tokens, nil)
}

// Revoke ends the caller's own refresh session. The username comes from the
// authenticated principal, never from the request body.
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	if err := h.service.Revoke(r.Context(), claims.Username); err != nil {
		writeError(w, err)
		return
	}

	h.publish(event.TypeSessionRevoked, r, claims.Username, claims.Role, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	user, err := h.service.GetUserByUsername(r.Context(), claims.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) publish(eventType event.Type, r *http.Request, username string, role string, detail string) {
	if h.bus == nil {
		return
	}

	h.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   strings.TrimSpace(username),
		Payload: event.AuthPayload{
			Username: strings.TrimSpace(username),
			Role:     role,
			IP:       middleware.ExtractClientIP(r),
			Detail:   detail,
		},
	})
}
