package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/internal/platform/websocket"
	"github.com/ehr/admin/pkg/pagination"
)

type memNotificationRepo struct {
	t *memstore.Table[Notification]
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{t: memstore.NewTable(func(n Notification) uuid.UUID { return n.ID }, nil)}
}

func (m *memNotificationRepo) Create(_ context.Context, n *Notification) error {
	now := time.Now().UTC()
	n.ID = uuid.New()
	n.CreatedAt, n.UpdatedAt = now, now
	m.t.Insert(*n)
	return nil
}

func (m *memNotificationRepo) Get(_ context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityNotification)
	}
	return &n, nil
}

func (m *memNotificationRepo) Update(_ context.Context, n *Notification) error {
	n.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*n) {
		return apperr.NotFound(EntityNotification)
	}
	return nil
}

func (m *memNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if !m.t.Remove(id) {
		return apperr.NotFound(EntityNotification)
	}
	return nil
}

func (m *memNotificationRepo) List(_ context.Context, f NotificationFilter, p pagination.Params) ([]*Notification, int, error) {
	rows := m.t.Select(true, func(n Notification) bool {
		return memstore.EqPtr(f.OrganizationID, n.OrganizationID) &&
			memstore.Eq(f.UserID, n.UserID) &&
			memstore.Eq(f.Category, n.Category) &&
			(f.Unread == nil || *f.Unread == !n.Read()) &&
			memstore.InRange(f.CreatedFrom, f.CreatedTo, n.CreatedAt)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(n Notification, col string) any {
		switch col {
		case "read_at":
			return n.ReadAt
		case "category":
			return n.Category
		}
		return n.CreatedAt
	}, func(n Notification) uuid.UUID { return n.ID }), p)
	return out, total, nil
}

type pushed struct {
	userID uuid.UUID
	event  websocket.Event
}

// recordingPusher captures pushes instead of writing to sockets.
type recordingPusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (r *recordingPusher) SendToUser(userID uuid.UUID, event websocket.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, pushed{userID: userID, event: event})
	return 1
}

func (r *recordingPusher) events() []pushed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pushed(nil), r.sent...)
}
