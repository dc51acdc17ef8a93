// Package audit records one append-only audit_log row for every designated
// mutation. Services call Sink.Record inside the same transaction as the
// write, so an audit failure rolls the mutation back.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/auth"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionCancel   Action = "cancel"
	ActionRelease  Action = "release"
	ActionFinalize Action = "finalize"
	ActionAssign   Action = "assign"
	ActionRevoke   Action = "revoke"
	ActionEnroll   Action = "enroll"
	ActionVerify   Action = "verify"
	ActionRemove   Action = "remove"
)

// Event is one audit row. ID and CreatedAt are assigned by the sink.
type Event struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	OrganizationID *uuid.UUID     `json:"organization_id"`
	Action         Action         `json:"action_type"`
	EntityType     string         `json:"related_entity_type"`
	EntityID       uuid.UUID      `json:"related_entity_id"`
	Context        map[string]any `json:"event_context"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewEvent builds an event attributed to the caller on ctx.
func NewEvent(ctx context.Context, action Action, entityType string, entityID uuid.UUID) Event {
	return Event{
		UserID:     auth.ActorID(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
}

// InOrganization sets the owning organization.
func (e Event) InOrganization(orgID uuid.UUID) Event {
	e.OrganizationID = &orgID
	return e
}

// With adds a key to the event context.
func (e Event) With(key string, value any) Event {
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	e.Context = ctx
	return e
}

// Sink persists or forwards audit events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// MemorySink keeps events in memory. Used by tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Record(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// For returns the events recorded for one entity.
func (m *MemorySink) For(entityID uuid.UUID) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
