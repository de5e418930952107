package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-auth-api/internal/model"
	"go-auth-api/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := model.AuditQuery{
		Action:   strings.TrimSpace(r.URL.Query().Get("action")),
		Username: strings.TrimSpace(r.URL.Query().Get("username")),
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 50),
	}

	entries, meta, err := h.service.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, &meta)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
