package admin

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
	orgs    OrganizationRepository
	depts   DepartmentRepository
	locales LocaleSettingRepository
	tx      db.TxRunner
	audit   audit.Sink
}

func NewService(orgs OrganizationRepository, depts DepartmentRepository, locales LocaleSettingRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{orgs: orgs, depts: depts, locales: locales, tx: tx, audit: sink}
}

// -- Organization --

// CreateOrganization is reserved for platform callers that are not bound to
// an organization.
func (s *Service) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*Organization, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	if p.OrganizationID != nil {
		return nil, apperr.Unauthorized("organization-scoped callers cannot create organizations")
	}
	org := req.model()
	if err := org.validate(); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.orgs.CodeExists(ctx, org.Code, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("organization code %q already exists", org.Code)
		}
		if err := s.orgs.Create(ctx, org); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityOrganization, org.ID).
			InOrganization(org.ID).
			With("code", org.Code))
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Organization, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.orgs.Get
	if includeDeleted {
		get = s.orgs.GetAny
	}
	org, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, org.ID); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, id uuid.UUID, req UpdateOrganizationRequest) (*Organization, error) {
	var org *Organization
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orgs.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, o.ID); err != nil {
			return err
		}
		before := o.Code
		if err := req.apply(o); err != nil {
			return err
		}
		if o.Code != before {
			taken, err := s.orgs.CodeExists(ctx, o.Code, o.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("organization code %q already exists", o.Code)
			}
		}
		if err := s.orgs.Update(ctx, o); err != nil {
			return err
		}
		org = o
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityOrganization, o.ID).
			InOrganization(o.ID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization soft-deletes an organization that has no active
// departments.
func (s *Service) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orgs.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, o.ID); err != nil {
			return err
		}
		busy, err := s.depts.HasActive(ctx, id)
		if err != nil {
			return err
		}
		if busy {
			return apperr.Conflict("organization %s still has active departments", id)
		}
		if err := s.orgs.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityOrganization, id).InOrganization(id))
	})
}

// ListOrganizations shows an organization-scoped caller only its own organization.
func (s *Service) ListOrganizations(ctx context.Context, f OrganizationFilter, p pagination.Params) ([]*Organization, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.ID)
	if err != nil {
		return nil, 0, err
	}
	f.ID = scoped
	return s.orgs.List(ctx, f, p)
}

// -- Department --

func (s *Service) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*Department, error) {
	dept := req.model()
	if err := dept.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, dept.OrganizationID); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.orgs.Get(ctx, dept.OrganizationID); err != nil {
			return err
		}
		taken, err := s.depts.CodeExists(ctx, dept.OrganizationID, dept.Code, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("department code %q already exists in organization %s", dept.Code, dept.OrganizationID)
		}
		if err := s.depts.Create(ctx, dept); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityDepartment, dept.ID).
			InOrganization(dept.OrganizationID).
			With("code", dept.Code))
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Department, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.depts.Get
	if includeDeleted {
		get = s.depts.GetAny
	}
	dept, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, dept.OrganizationID); err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, req UpdateDepartmentRequest) (*Department, error) {
	var dept *Department
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		d, err := s.depts.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, d.OrganizationID); err != nil {
			return err
		}
		before := d.Code
		if err := req.apply(d); err != nil {
			return err
		}
		if d.Code != before {
			taken, err := s.depts.CodeExists(ctx, d.OrganizationID, d.Code, d.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("department code %q already exists in organization %s", d.Code, d.OrganizationID)
			}
		}
		if err := s.depts.Update(ctx, d); err != nil {
			return err
		}
		dept = d
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityDepartment, d.ID).
			InOrganization(d.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// DeleteDepartment soft-deletes a department with no active locale setting.
func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		d, err := s.depts.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, d.OrganizationID); err != nil {
			return err
		}
		busy, err := s.locales.HasActiveForDepartment(ctx, id)
		if err != nil {
			return err
		}
		if busy {
			return apperr.Conflict("department %s still has an active locale setting", id)
		}
		if err := s.depts.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityDepartment, id).InOrganization(d.OrganizationID))
	})
}

func (s *Service) ListDepartments(ctx context.Context, f DepartmentFilter, p pagination.Params) ([]*Department, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.depts.List(ctx, f, p)
}

// -- Locale Setting --

// CreateLocaleSetting enforces one active setting per (organization,
// department). The partial unique index settles races the pre-check misses.
func (s *Service) CreateLocaleSetting(ctx context.Context, req CreateLocaleSettingRequest) (*LocaleSetting, error) {
	l := req.model()
	if err := l.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, l.OrganizationID); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.orgs.Get(ctx, l.OrganizationID); err != nil {
			return err
		}
		if l.DepartmentID != nil {
			d, err := s.depts.Get(ctx, *l.DepartmentID)
			if err != nil {
				return err
			}
			if d.OrganizationID != l.OrganizationID {
				return apperr.Validation("department %s does not belong to organization %s", d.ID, l.OrganizationID)
			}
		}
		exists, err := s.locales.ActiveExists(ctx, l.OrganizationID, l.DepartmentID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("an active locale setting already exists for this organization and department")
		}
		if err := s.locales.Create(ctx, l); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityLocaleSetting, l.ID).
			InOrganization(l.OrganizationID))
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) GetLocaleSetting(ctx context.Context, id uuid.UUID, includeDeleted bool) (*LocaleSetting, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.locales.Get
	if includeDeleted {
		get = s.locales.GetAny
	}
	l, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, l.OrganizationID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) UpdateLocaleSetting(ctx context.Context, id uuid.UUID, req UpdateLocaleSettingRequest) (*LocaleSetting, error) {
	var setting *LocaleSetting
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		l, err := s.locales.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, l.OrganizationID); err != nil {
			return err
		}
		if err := req.apply(l); err != nil {
			return err
		}
		if err := s.locales.Update(ctx, l); err != nil {
			return err
		}
		setting = l
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityLocaleSetting, l.ID).
			InOrganization(l.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *Service) DeleteLocaleSetting(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		l, err := s.locales.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, l.OrganizationID); err != nil {
			return err
		}
		if err := s.locales.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityLocaleSetting, id).InOrganization(l.OrganizationID))
	})
}

func (s *Service) ListLocaleSettings(ctx context.Context, f LocaleSettingFilter, p pagination.Params) ([]*LocaleSetting, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.locales.List(ctx, f, p)
}
