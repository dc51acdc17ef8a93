package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/internal/platform/websocket"
	"github.com/ehr/admin/pkg/pagination"
)

// NotificationFilter narrows an inbox. Unread selects rows with no read_at
// when true and rows already read when false.
type NotificationFilter struct {
	OrganizationID *uuid.UUID
	UserID         *uuid.UUID
	Category       *string
	Unread         *bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Order          query.Order
}

var notificationSort = query.SortSpec{
	Allowed: map[string]string{
		"created_at": "created_at",
		"read_at":    "read_at",
		"category":   "category",
	},
	Default: "created_at",
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f NotificationFilter, p pagination.Params) ([]*Notification, int, error)
}

// Pusher delivers an event to the live connections of one user. It returns
// the number of connections reached.
type Pusher interface {
	SendToUser(userID uuid.UUID, event websocket.Event) int
}
