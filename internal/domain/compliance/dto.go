package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

// -- Legal Hold DTOs --

type LegalHoldResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	PatientID      *uuid.UUID `json:"patient_id"`
	MatterName     string     `json:"matter_name"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	PlacedBy       uuid.UUID  `json:"placed_by"`
	ReleasedBy     *uuid.UUID `json:"released_by"`
	ReleasedAt     *string    `json:"released_at"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	DeletedAt      *string    `json:"deleted_at"`
}

func NewLegalHoldResponse(h *LegalHold) LegalHoldResponse {
	return LegalHoldResponse{
		ID:             h.ID,
		OrganizationID: h.OrganizationID,
		PatientID:      h.PatientID,
		MatterName:     h.MatterName,
		Reason:         h.Reason,
		Status:         h.Status,
		PlacedBy:       h.PlacedBy,
		ReleasedBy:     h.ReleasedBy,
		ReleasedAt:     timefmt.FormatPtr(h.ReleasedAt),
		CreatedAt:      timefmt.Format(h.CreatedAt),
		UpdatedAt:      timefmt.Format(h.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(h.DeletedAt),
	}
}

type CreateLegalHoldRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	PatientID      *uuid.UUID `json:"patient_id"`
	MatterName     string     `json:"matter_name"`
	Reason         string     `json:"reason"`
}

func (r CreateLegalHoldRequest) model(placedBy uuid.UUID) *LegalHold {
	return &LegalHold{
		OrganizationID: r.OrganizationID,
		PatientID:      r.PatientID,
		MatterName:     r.MatterName,
		Reason:         r.Reason,
		Status:         HoldActive,
		PlacedBy:       placedBy,
	}
}

// UpdateLegalHoldRequest only edits the description of an active hold; its
// scope is fixed once placed.
type UpdateLegalHoldRequest struct {
	MatterName optional.Field[string] `json:"matter_name"`
	Reason     optional.Field[string] `json:"reason"`
}

func (r UpdateLegalHoldRequest) apply(h *LegalHold) error {
	if err := optional.ApplyRequired(&h.MatterName, r.MatterName, "matter_name"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&h.Reason, r.Reason, "reason"); err != nil {
		return err
	}
	return h.validate()
}

func (r UpdateLegalHoldRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"matter_name": r.MatterName,
		"reason":      r.Reason,
	})
}

// -- Compliance Review DTOs --

type ComplianceReviewResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	LegalHoldID    *uuid.UUID `json:"legal_hold_id"`
	ReviewType     string     `json:"review_type"`
	Status         string     `json:"status"`
	ReviewerID     *uuid.UUID `json:"reviewer_id"`
	Findings       *string    `json:"findings"`
	DueDate        *string    `json:"due_date"`
	FinalizedAt    *string    `json:"finalized_at"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	DeletedAt      *string    `json:"deleted_at"`
}

func NewComplianceReviewResponse(r *ComplianceReview) ComplianceReviewResponse {
	return ComplianceReviewResponse{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		LegalHoldID:    r.LegalHoldID,
		ReviewType:     r.ReviewType,
		Status:         r.Status,
		ReviewerID:     r.ReviewerID,
		Findings:       r.Findings,
		DueDate:        timefmt.FormatDatePtr(r.DueDate),
		FinalizedAt:    timefmt.FormatPtr(r.FinalizedAt),
		CreatedAt:      timefmt.Format(r.CreatedAt),
		UpdatedAt:      timefmt.Format(r.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(r.DeletedAt),
	}
}

type CreateComplianceReviewRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	LegalHoldID    *uuid.UUID `json:"legal_hold_id"`
	ReviewType     string     `json:"review_type"`
	ReviewerID     *uuid.UUID `json:"reviewer_id"`
	Findings       *string    `json:"findings"`
	DueDate        *string    `json:"due_date"`
}

func (r CreateComplianceReviewRequest) model() (*ComplianceReview, error) {
	rev := &ComplianceReview{
		OrganizationID: r.OrganizationID,
		LegalHoldID:    r.LegalHoldID,
		ReviewType:     r.ReviewType,
		Status:         ReviewOpen,
		ReviewerID:     r.ReviewerID,
		Findings:       r.Findings,
	}
	if r.DueDate != nil {
		d, err := parseDueDate(*r.DueDate)
		if err != nil {
			return nil, err
		}
		rev.DueDate = &d
	}
	return rev, rev.validate()
}

type UpdateComplianceReviewRequest struct {
	Status     optional.Field[string]    `json:"status"`
	ReviewerID optional.Field[uuid.UUID] `json:"reviewer_id"`
	Findings   optional.Field[string]    `json:"findings"`
	DueDate    optional.Field[string]    `json:"due_date"`
}

func (r UpdateComplianceReviewRequest) apply(rev *ComplianceReview) error {
	if err := optional.ApplyRequired(&rev.Status, r.Status, "status"); err != nil {
		return err
	}
	optional.Apply(&rev.ReviewerID, r.ReviewerID)
	optional.Apply(&rev.Findings, r.Findings)
	if r.DueDate.IsNull() {
		rev.DueDate = nil
	}
	if raw, ok := r.DueDate.Value(); ok {
		d, err := parseDueDate(raw)
		if err != nil {
			return err
		}
		rev.DueDate = &d
	}
	return rev.validate()
}

func (r UpdateComplianceReviewRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"status":      r.Status,
		"reviewer_id": r.ReviewerID,
		"findings":    r.Findings,
		"due_date":    r.DueDate,
	})
}

func parseDueDate(s string) (time.Time, error) {
	d, err := time.Parse(timefmt.DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("due_date must be formatted YYYY-MM-DD")
	}
	return d, nil
}

// -- Audit Log DTOs --

type AuditLogResponse struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	OrganizationID    *uuid.UUID     `json:"organization_id"`
	ActionType        string         `json:"action_type"`
	RelatedEntityType string         `json:"related_entity_type"`
	RelatedEntityID   uuid.UUID      `json:"related_entity_id"`
	EventContext      map[string]any `json:"event_context"`
	CreatedAt         string         `json:"created_at"`
}

func NewAuditLogResponse(e *audit.Event) AuditLogResponse {
	return AuditLogResponse{
		ID:                e.ID,
		UserID:            e.UserID,
		OrganizationID:    e.OrganizationID,
		ActionType:        string(e.Action),
		RelatedEntityType: e.EntityType,
		RelatedEntityID:   e.EntityID,
		EventContext:      e.Context,
		CreatedAt:         timefmt.Format(e.CreatedAt),
	}
}
