package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	PractitionerID *uuid.UUID `json:"practitioner_id"`
	Status         string     `json:"status"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	Reason         *string    `json:"reason"`
	CancelReason   *string    `json:"cancel_reason"`
	CancelledAt    *string    `json:"cancelled_at"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	DeletedAt      *string    `json:"deleted_at"`
}

func NewAppointmentResponse(a *Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		PatientID:      a.PatientID,
		DepartmentID:   a.DepartmentID,
		PractitionerID: a.PractitionerID,
		Status:         a.Status,
		StartTime:      timefmt.Format(a.StartTime),
		EndTime:        timefmt.Format(a.EndTime),
		Reason:         a.Reason,
		CancelReason:   a.CancelReason,
		CancelledAt:    timefmt.FormatPtr(a.CancelledAt),
		CreatedAt:      timefmt.Format(a.CreatedAt),
		UpdatedAt:      timefmt.Format(a.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(a.DeletedAt),
	}
}

type CreateAppointmentRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	PractitionerID *uuid.UUID `json:"practitioner_id"`
	Status         string     `json:"status"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Reason         *string    `json:"reason"`
}

func (r CreateAppointmentRequest) model() *Appointment {
	return &Appointment{
		OrganizationID: r.OrganizationID,
		PatientID:      r.PatientID,
		DepartmentID:   r.DepartmentID,
		PractitionerID: r.PractitionerID,
		Status:         r.Status,
		StartTime:      r.StartTime.UTC(),
		EndTime:        r.EndTime.UTC(),
		Reason:         r.Reason,
	}
}

// UpdateAppointmentRequest cannot move an appointment to another patient or
// organization, and cannot cancel it.
type UpdateAppointmentRequest struct {
	DepartmentID   optional.Field[uuid.UUID] `json:"department_id"`
	PractitionerID optional.Field[uuid.UUID] `json:"practitioner_id"`
	Status         optional.Field[string]    `json:"status"`
	StartTime      optional.Field[time.Time] `json:"start_time"`
	EndTime        optional.Field[time.Time] `json:"end_time"`
	Reason         optional.Field[string]    `json:"reason"`
}

func (r UpdateAppointmentRequest) apply(a *Appointment) error {
	optional.Apply(&a.DepartmentID, r.DepartmentID)
	optional.Apply(&a.PractitionerID, r.PractitionerID)
	optional.Apply(&a.Reason, r.Reason)
	if err := optional.ApplyRequired(&a.Status, r.Status, "status"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&a.StartTime, r.StartTime, "start_time"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&a.EndTime, r.EndTime, "end_time"); err != nil {
		return err
	}
	a.StartTime, a.EndTime = a.StartTime.UTC(), a.EndTime.UTC()
	return a.validate()
}

func (r UpdateAppointmentRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"department_id":   r.DepartmentID,
		"practitioner_id": r.PractitionerID,
		"status":          r.Status,
		"start_time":      r.StartTime,
		"end_time":        r.EndTime,
		"reason":          r.Reason,
	})
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

func (r CancelAppointmentRequest) validate() (string, error) {
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		return "", apperr.Validation("reason is required")
	}
	return reason, nil
}
