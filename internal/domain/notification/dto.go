package notification

import (
	"github.com/google/uuid"

	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

type NotificationResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Category       string     `json:"category"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	ReadAt         *string    `json:"read_at"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

func NewNotificationResponse(n *Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		OrganizationID: n.OrganizationID,
		UserID:         n.UserID,
		Category:       n.Category,
		Title:          n.Title,
		Body:           n.Body,
		ReadAt:         timefmt.FormatPtr(n.ReadAt),
		CreatedAt:      timefmt.Format(n.CreatedAt),
		UpdatedAt:      timefmt.Format(n.UpdatedAt),
	}
}

type CreateNotificationRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Category       string     `json:"category"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
}

func (r CreateNotificationRequest) model() *Notification {
	category := r.Category
	if category == "" {
		category = "system"
	}
	return &Notification{
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID,
		Category:       category,
		Title:          r.Title,
		Body:           r.Body,
	}
}

// UpdateNotificationRequest edits the content of a notification. Recipient
// and read state are not editable here.
type UpdateNotificationRequest struct {
	Category optional.Field[string] `json:"category"`
	Title    optional.Field[string] `json:"title"`
	Body     optional.Field[string] `json:"body"`
}

func (r UpdateNotificationRequest) apply(n *Notification) error {
	if err := optional.ApplyRequired(&n.Category, r.Category, "category"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&n.Title, r.Title, "title"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&n.Body, r.Body, "body"); err != nil {
		return err
	}
	return n.validate()
}
