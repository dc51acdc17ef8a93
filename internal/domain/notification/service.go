package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/websocket"
	"github.com/ehr/admin/pkg/pagination"
)

const (
	EventCreated = "notification.created"
	EventRead    = "notification.read"
)

// Service manages user inboxes. Notifications are not compliance records and
// are not written to the audit log.
type Service struct {
	repo NotificationRepository
	tx   db.TxRunner
	push Pusher
	now  func() time.Time
}

func NewService(repo NotificationRepository, tx db.TxRunner, push Pusher) *Service {
	return &Service{repo: repo, tx: tx, push: push, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateNotificationRequest) (*Notification, error) {
	n := req.model()
	if err := n.validate(); err != nil {
		return nil, err
	}
	if n.OrganizationID != nil {
		if err := auth.EnsureOrganization(ctx, *n.OrganizationID); err != nil {
			return nil, err
		}
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, n); err != nil {
			return err
		}
		s.notify(ctx, EventCreated, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Get returns a notification to its recipient or to an admin. Anyone else
// gets NotFound so inbox contents are not revealed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateNotificationRequest) (*Notification, error) {
	var out *Notification
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := req.apply(n); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead stamps read_at on the caller's own notification. Marking an
// already read notification keeps the first timestamp.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var out *Notification
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if n.UserID != auth.ActorID(ctx) {
			return apperr.NotFound(EntityNotification)
		}
		out = n
		if n.Read() {
			return nil
		}
		at := s.now().UTC()
		n.ReadAt = &at
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		s.notify(ctx, EventRead, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}

// List returns the caller's inbox. Admins may list any user's notifications
// within their organization scope.
func (s *Service) List(ctx context.Context, f NotificationFilter, p pagination.Params) ([]*Notification, int, error) {
	pr, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, 0, apperr.Unauthorized("authentication required")
	}
	if auth.IsAdmin(ctx) {
		scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
		if err != nil {
			return nil, 0, err
		}
		f.OrganizationID = scoped
		return s.repo.List(ctx, f, p)
	}
	if f.UserID != nil && *f.UserID != pr.UserID {
		return nil, 0, apperr.Unauthorized("only admins may list another user's notifications")
	}
	self := pr.UserID
	f.UserID = &self
	return s.repo.List(ctx, f, p)
}

func (s *Service) checkAccess(ctx context.Context, n *Notification) error {
	pr, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return apperr.Unauthorized("authentication required")
	}
	if n.UserID == pr.UserID {
		return nil
	}
	if !auth.IsAdmin(ctx) {
		return apperr.NotFound(EntityNotification)
	}
	if n.OrganizationID != nil {
		return auth.EnsureOrganization(ctx, *n.OrganizationID)
	}
	return nil
}

// notify pushes n to its recipient once the surrounding transaction commits.
func (s *Service) notify(ctx context.Context, eventType string, n *Notification) {
	if s.push == nil {
		return
	}
	// NotificationResponse holds only strings and ids; Marshal cannot fail.
	data, _ := json.Marshal(NewNotificationResponse(n))
	ev := websocket.Event{Type: eventType, Timestamp: s.now().UTC(), Data: data}
	userID := n.UserID
	db.AfterCommit(ctx, func() {
		s.push.SendToUser(userID, ev)
	})
}
