package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

type LegalHoldFilter struct {
	OrganizationID *uuid.UUID
	PatientID      *uuid.UUID
	Status         *string
	MatterName     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Order          query.Order
}

var legalHoldSort = query.SortSpec{
	Allowed: map[string]string{
		"matter_name": "matter_name",
		"status":      "status",
		"created_at":  "created_at",
		"released_at": "released_at",
	},
	Default: "created_at",
}

type ComplianceReviewFilter struct {
	OrganizationID *uuid.UUID
	LegalHoldID    *uuid.UUID
	ReviewerID     *uuid.UUID
	ReviewType     *string
	Status         *string
	DueFrom        *time.Time
	DueTo          *time.Time
	Order          query.Order
}

var complianceReviewSort = query.SortSpec{
	Allowed: map[string]string{
		"due_date":     "due_date",
		"status":       "status",
		"created_at":   "created_at",
		"finalized_at": "finalized_at",
	},
	Default: "created_at",
}

// AuditLogFilter narrows the audit log. The log has no deleted_at column and
// is never filtered by soft-delete state.
type AuditLogFilter struct {
	OrganizationID *uuid.UUID
	UserID         *uuid.UUID
	ActionType     *string
	EntityType     *string
	EntityID       *uuid.UUID
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Order          query.Order
}

var auditLogSort = query.SortSpec{
	Allowed: map[string]string{
		"created_at":          "created_at",
		"action_type":         "action_type",
		"related_entity_type": "related_entity_type",
	},
	Default: "created_at",
}

type LegalHoldRepository interface {
	Create(ctx context.Context, h *LegalHold) error
	Get(ctx context.Context, id uuid.UUID) (*LegalHold, error)
	GetAny(ctx context.Context, id uuid.UUID) (*LegalHold, error)
	Update(ctx context.Context, h *LegalHold) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f LegalHoldFilter, p pagination.Params) ([]*LegalHold, int, error)
	PatientInOrganization(ctx context.Context, orgID, patientID uuid.UUID) (bool, error)
}

type ComplianceReviewRepository interface {
	Create(ctx context.Context, r *ComplianceReview) error
	Get(ctx context.Context, id uuid.UUID) (*ComplianceReview, error)
	GetAny(ctx context.Context, id uuid.UUID) (*ComplianceReview, error)
	Update(ctx context.Context, r *ComplianceReview) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ComplianceReviewFilter, p pagination.Params) ([]*ComplianceReview, int, error)
	// CountOpenForHold counts active reviews of a hold that are not finalized.
	CountOpenForHold(ctx context.Context, holdID uuid.UUID) (int, error)
}

// AuditLogRepository is read only. Rows are written by audit.PGSink.
type AuditLogRepository interface {
	List(ctx context.Context, f AuditLogFilter, p pagination.Params) ([]*audit.Event, int, error)
}
