package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

type memAppointmentRepo struct {
	t        *memstore.Table[Appointment]
	patients map[uuid.UUID]uuid.UUID // patient id -> organization id
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{
		t: memstore.NewTable(
			func(a Appointment) uuid.UUID { return a.ID },
			func(a Appointment) *time.Time { return a.DeletedAt },
		),
		patients: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *memAppointmentRepo) addPatient(orgID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.patients[id] = orgID
	return id
}

func (m *memAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	now := time.Now().UTC()
	a.ID = uuid.New()
	a.CreatedAt, a.UpdatedAt = now, now
	m.t.Insert(*a)
	return nil
}

func (m *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityAppointment)
	}
	return &a, nil
}

func (m *memAppointmentRepo) GetAny(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityAppointment)
	}
	return &a, nil
}

func (m *memAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*a) {
		return apperr.NotFound(EntityAppointment)
	}
	return nil
}

func (m *memAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	a, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityAppointment)
	}
	now := time.Now().UTC()
	a.DeletedAt, a.UpdatedAt = &now, now
	m.t.Replace(a)
	return nil
}

func (m *memAppointmentRepo) List(_ context.Context, f AppointmentFilter, p pagination.Params) ([]*Appointment, int, error) {
	rows := m.t.Select(true, func(a Appointment) bool {
		return memstore.Eq(f.OrganizationID, a.OrganizationID) &&
			memstore.Eq(f.PatientID, a.PatientID) &&
			memstore.EqPtr(f.DepartmentID, a.DepartmentID) &&
			memstore.EqPtr(f.PractitionerID, a.PractitionerID) &&
			memstore.Eq(f.Status, a.Status) &&
			memstore.InRange(f.StartFrom, f.StartTo, a.StartTime)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(a Appointment, col string) any {
		switch col {
		case "start_time":
			return a.StartTime
		case "end_time":
			return a.EndTime
		case "status":
			return a.Status
		}
		return a.CreatedAt
	}, func(a Appointment) uuid.UUID { return a.ID }), p)
	return out, total, nil
}

func (m *memAppointmentRepo) PatientInOrganization(_ context.Context, orgID, patientID uuid.UUID) (bool, error) {
	org, ok := m.patients[patientID]
	return ok && org == orgID, nil
}
