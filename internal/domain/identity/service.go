package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/pkg/pagination"
)

type Service struct {
	patients PatientRepository
	tx       db.TxRunner
	audit    audit.Sink
}

func NewService(patients PatientRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{patients: patients, tx: tx, audit: sink}
}

func (s *Service) CreatePatient(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	p, err := req.model()
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, p.OrganizationID); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.patients.MRNExists(ctx, p.OrganizationID, p.MRN, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("mrn %q already exists in organization %s", p.MRN, p.OrganizationID)
		}
		if err := s.patients.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityPatient, p.ID).
			InOrganization(p.OrganizationID))
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Patient, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.patients.Get
	if includeDeleted {
		get = s.patients.GetAny
	}
	p, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, p.OrganizationID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req UpdatePatientRequest) (*Patient, error) {
	var patient *Patient
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, p.OrganizationID); err != nil {
			return err
		}
		before := p.MRN
		if err := req.apply(p); err != nil {
			return err
		}
		if p.MRN != before {
			taken, err := s.patients.MRNExists(ctx, p.OrganizationID, p.MRN, p.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("mrn %q already exists in organization %s", p.MRN, p.OrganizationID)
			}
		}
		if err := s.patients.Update(ctx, p); err != nil {
			return err
		}
		patient = p
		// Field names only; values are PHI and stay out of the audit trail.
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityPatient, p.ID).
			InOrganization(p.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, p.OrganizationID); err != nil {
			return err
		}
		dep, err := s.patients.BlockingDependency(ctx, id)
		if err != nil {
			return err
		}
		if dep != "" {
			return apperr.Conflict("patient %s cannot be deleted: %s exists", id, dep)
		}
		if err := s.patients.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityPatient, id).InOrganization(p.OrganizationID))
	})
}

func (s *Service) ListPatients(ctx context.Context, f PatientFilter, p pagination.Params) ([]*Patient, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.patients.List(ctx, f, p)
}
