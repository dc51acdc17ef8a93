package compliance

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const (
	EntityLegalHold        = "legal_hold"
	EntityComplianceReview = "compliance_review"
)

const (
	HoldActive   = "active"
	HoldReleased = "released"
)

const (
	ReviewOpen       = "open"
	ReviewInProgress = "in_progress"
	ReviewFinalized  = "finalized"
)

// Finalized is only reachable through Finalize.
var validReviewStatuses = map[string]bool{
	ReviewOpen:       true,
	ReviewInProgress: true,
}

var validReviewTypes = map[string]bool{
	"access_review":     true,
	"privacy_incident":  true,
	"records_retention": true,
	"legal_hold":        true,
}

// LegalHold maps to the legal_hold table. A hold may cover one patient or,
// with PatientID nil, the whole organization.
type LegalHold struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	PatientID      *uuid.UUID `db:"patient_id"`
	MatterName     string     `db:"matter_name"`
	Reason         string     `db:"reason"`
	Status         string     `db:"status"`
	PlacedBy       uuid.UUID  `db:"placed_by"`
	ReleasedBy     *uuid.UUID `db:"released_by"`
	ReleasedAt     *time.Time `db:"released_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (h *LegalHold) validate() error {
	h.MatterName = strings.TrimSpace(h.MatterName)
	h.Reason = strings.TrimSpace(h.Reason)
	if h.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if h.MatterName == "" {
		return apperr.Validation("matter_name is required")
	}
	if h.Reason == "" {
		return apperr.Validation("reason is required")
	}
	return nil
}

// ComplianceReview maps to the compliance_review table. A finalized review
// is immutable.
type ComplianceReview struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	LegalHoldID    *uuid.UUID `db:"legal_hold_id"`
	ReviewType     string     `db:"review_type"`
	Status         string     `db:"status"`
	ReviewerID     *uuid.UUID `db:"reviewer_id"`
	Findings       *string    `db:"findings"`
	DueDate        *time.Time `db:"due_date"`
	FinalizedAt    *time.Time `db:"finalized_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (r *ComplianceReview) validate() error {
	if r.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if !validReviewTypes[r.ReviewType] {
		return apperr.Validation("invalid review_type: %s", r.ReviewType)
	}
	if r.Status == "" {
		r.Status = ReviewOpen
	}
	if !validReviewStatuses[r.Status] {
		return apperr.Validation("invalid review status: %s", r.Status)
	}
	return nil
}

func (r *ComplianceReview) Finalized() bool {
	return r.Status == ReviewFinalized
}
