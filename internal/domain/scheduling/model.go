package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const EntityAppointment = "appointment"

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Cancelled is only reachable through Cancel so that the reason and time are
// always recorded together.
var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusNoShow:    true,
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	PatientID      uuid.UUID  `db:"patient_id"`
	DepartmentID   *uuid.UUID `db:"department_id"`
	PractitionerID *uuid.UUID `db:"practitioner_id"`
	Status         string     `db:"status"`
	StartTime      time.Time  `db:"start_time"`
	EndTime        time.Time  `db:"end_time"`
	Reason         *string    `db:"reason"`
	CancelReason   *string    `db:"cancel_reason"`
	CancelledAt    *time.Time `db:"cancelled_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (a *Appointment) validate() error {
	if a.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validAppointmentStatuses[a.Status] {
		return apperr.Validation("invalid appointment status: %s", a.Status)
	}
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return apperr.Validation("start_time and end_time are required")
	}
	if !a.EndTime.After(a.StartTime) {
		return apperr.Validation("end_time must be after start_time")
	}
	return nil
}

// Cancelled reports whether the appointment has reached its terminal state.
func (a *Appointment) Cancelled() bool {
	return a.Status == StatusCancelled
}
