package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/pkg/pagination"
)

type Service struct {
	appointments AppointmentRepository
	tx           db.TxRunner
	audit        audit.Sink
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{appointments: appointments, tx: tx, audit: sink, now: time.Now}
}

func (s *Service) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	a := req.model()
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, a.OrganizationID); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.appointments.PatientInOrganization(ctx, a.OrganizationID, a.PatientID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("patient %s is not an active patient of organization %s", a.PatientID, a.OrganizationID)
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityAppointment, a.ID).
			InOrganization(a.OrganizationID).
			With("patient_id", a.PatientID.String()))
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Appointment, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.appointments.Get
	if includeDeleted {
		get = s.appointments.GetAny
	}
	a, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, a.OrganizationID); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAppointment rejects changes to cancelled appointments.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req UpdateAppointmentRequest) (*Appointment, error) {
	var appt *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, a.OrganizationID); err != nil {
			return err
		}
		if a.Cancelled() {
			return apperr.Conflict("appointment %s is cancelled", id)
		}
		if err := req.apply(a); err != nil {
			return err
		}
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		appt = a
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityAppointment, a.ID).
			InOrganization(a.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// CancelAppointment moves an appointment to its terminal cancelled state.
// Completed appointments cannot be cancelled.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, req CancelAppointmentRequest) (*Appointment, error) {
	reason, err := req.validate()
	if err != nil {
		return nil, err
	}
	var appt *Appointment
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, a.OrganizationID); err != nil {
			return err
		}
		switch a.Status {
		case StatusCancelled:
			return apperr.Conflict("appointment %s is already cancelled", id)
		case StatusCompleted:
			return apperr.Conflict("appointment %s is completed", id)
		}
		at := s.now().UTC()
		a.Status = StatusCancelled
		a.CancelReason = &reason
		a.CancelledAt = &at
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		appt = a
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCancel, EntityAppointment, a.ID).
			InOrganization(a.OrganizationID).
			With("reason", reason))
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, a.OrganizationID); err != nil {
			return err
		}
		if err := s.appointments.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityAppointment, id).
			InOrganization(a.OrganizationID))
	})
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter, p pagination.Params) ([]*Appointment, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.appointments.List(ctx, f, p)
}
