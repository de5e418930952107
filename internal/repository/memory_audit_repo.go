package repository

import (
	"context"
	"strings"
	"sync"

	"go-auth-api/internal/model"
)

const memoryAuditCapacity = 1000

// MemoryAuditRepository keeps the most recent audit entries in memory,
// newest first. Used when no database is configured.
type MemoryAuditRepository struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Log(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append([]model.AuditEntry{entry}, r.entries...)
	if len(r.entries) > memoryAuditCapacity {
		r.entries = r.entries[:memoryAuditCapacity]
	}
	return nil
}

func (r *MemoryAuditRepository) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query = normalizeAuditQuery(query)

	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]model.AuditEntry, 0)
	for _, e := range r.entries {
		if !auditEntryMatches(e, query) {
			continue
		}
		matched = append(matched, e)
	}

	meta := auditMeta(query, len(matched))

	start := (query.Page - 1) * query.Limit
	if start >= len(matched) {
		return []model.AuditEntry{}, meta, nil
	}
	end := start + query.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], meta, nil
}

func auditEntryMatches(e model.AuditEntry, query model.AuditQuery) bool {
	if query.Action != "" && !strings.EqualFold(e.Action, query.Action) {
		return false
	}
	if query.Username != "" && !strings.EqualFold(e.Actor.Username, query.Username) {
		return false
	}
	if query.Status != "" && !strings.EqualFold(e.Status, query.Status) {
		return false
	}
	return true
}
