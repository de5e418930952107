package handler

import (
	"fmt"
	"net/http"

	"go-auth-api/internal/middleware"
	"go-auth-api/pkg/apierror"
)

// ActionHandler serves the demo endpoints showing the authorization gate in
// front of real routes. Each protected action is reachable by exactly one
// role; the router attaches the matching requirement.
type ActionHandler struct{}

func NewActionHandler() *ActionHandler {
	return &ActionHandler{}
}

func (h *ActionHandler) Any(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Action succeeded"}, nil)
}

func (h *ActionHandler) Developer(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Dev Action Succeeded"}, nil)
}

func (h *ActionHandler) Manager(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Manager Action Succeeded"}, nil)
}

func (h *ActionHandler) Boss(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%s Action Succeeded.", claims.Role),
	}, nil)
}
