package service

import (
	"context"
	"log/slog"
	"time"

	"go-auth-api/internal/event"
	"go-auth-api/internal/model"
)

// AuditStore persists audit entries; Postgres and in-memory adapters both
// satisfy it.
type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Record(ctx context.Context, entry model.AuditEntry) error {
	if entry.OccurredAt == "" {
		entry.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return s.store.Log(ctx, entry)
}

func (s *AuditService) List(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.store.Query(ctx, query)
}

// RecordEvents consumes the event bus and persists every auth event as an
// audit entry until ctx is cancelled. Run it in its own goroutine.
func (s *AuditService) RecordEvents(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.Record(ctx, entryFromEvent(e)); err != nil {
				slog.Error("failed to record audit entry", "event_type", string(e.Type), "error", err)
			}
		}
	}
}

func entryFromEvent(e event.Event) model.AuditEntry {
	entry := model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: e.Timestamp,
		Status:     "success",
	}

	switch e.Type {
	case event.TypeLoginDenied, event.TypeRefreshDenied:
		entry.Status = "denied"
	}

	if payload, ok := e.Payload.(event.AuthPayload); ok {
		entry.Actor.Username = payload.Username
		entry.Actor.Role = payload.Role
		entry.Actor.IP = payload.IP
		entry.Detail = payload.Detail
	}

	return entry
}
