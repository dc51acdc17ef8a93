package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const EntityNotification = "notification"

var validCategories = map[string]bool{
	"system":      true,
	"appointment": true,
	"billing":     true,
	"compliance":  true,
	"security":    true,
}

// Notification maps to the notification table. It is a per-user inbox entry
// and is removed outright on delete.
type Notification struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID *uuid.UUID `db:"organization_id"`
	UserID         uuid.UUID  `db:"user_id"`
	Category       string     `db:"category"`
	Title          string     `db:"title"`
	Body           string     `db:"body"`
	ReadAt         *time.Time `db:"read_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (n *Notification) validate() error {
	n.Title = strings.TrimSpace(n.Title)
	n.Category = strings.ToLower(strings.TrimSpace(n.Category))
	if n.UserID == uuid.Nil {
		return apperr.Validation("user_id is required")
	}
	if n.Title == "" {
		return apperr.Validation("title is required")
	}
	if strings.TrimSpace(n.Body) == "" {
		return apperr.Validation("body is required")
	}
	if !validCategories[n.Category] {
		return apperr.Validation("invalid category: %s", n.Category)
	}
	return nil
}

func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
