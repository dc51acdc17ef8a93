package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// AppointmentFilter narrows an appointment list. StartFrom and StartTo bound
// start_time independently.
type AppointmentFilter struct {
	OrganizationID *uuid.UUID
	PatientID      *uuid.UUID
	DepartmentID   *uuid.UUID
	PractitionerID *uuid.UUID
	Status         *string
	StartFrom      *time.Time
	StartTo        *time.Time
	Order          query.Order
}

var appointmentSort = query.SortSpec{
	Allowed: map[string]string{
		"start_time": "start_time",
		"end_time":   "end_time",
		"status":     "status",
		"created_at": "created_at",
	},
	Default: "start_time",
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAny(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f AppointmentFilter, p pagination.Params) ([]*Appointment, int, error)
	// PatientInOrganization reports whether an active patient with patientID
	// belongs to orgID.
	PatientInOrganization(ctx context.Context, orgID, patientID uuid.UUID) (bool, error)
}
