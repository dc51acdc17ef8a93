package pharmacy

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
	repo  PharmacyIntegrationRepository
	tx    db.TxRunner
	audit audit.Sink
}

func NewService(repo PharmacyIntegrationRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{repo: repo, tx: tx, audit: sink}
}

func (s *Service) checkVendorFree(ctx context.Context, p *PharmacyIntegration) error {
	taken, err := s.repo.ActiveExists(ctx, p.OrganizationID, p.Vendor, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("organization %s already has an active %s integration", p.OrganizationID, p.Vendor)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreatePharmacyIntegrationRequest) (*PharmacyIntegration, error) {
	p := req.model()
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, p.OrganizationID); err != nil {
		return nil, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkVendorFree(ctx, p); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityPharmacyIntegration, p.ID).
			InOrganization(p.OrganizationID).
			With("vendor", p.Vendor))
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (*PharmacyIntegration, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.repo.Get
	if includeDeleted {
		get = s.repo.GetAny
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

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePharmacyIntegrationRequest) (*PharmacyIntegration, error) {
	var out *PharmacyIntegration
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Get(ctx, id, false)
		if err != nil {
			return err
		}
		before := p.Vendor
		if err := req.apply(p); err != nil {
			return err
		}
		if p.Vendor != before {
			if err := s.checkVendorFree(ctx, p); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityPharmacyIntegration, p.ID).
			InOrganization(p.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Get(ctx, id, false)
		if err != nil {
			return err
		}
		if err := s.repo.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityPharmacyIntegration, id).
			InOrganization(p.OrganizationID))
	})
}

func (s *Service) List(ctx context.Context, f PharmacyIntegrationFilter, p pagination.Params) ([]*PharmacyIntegration, int, error) {
	if f.SyncedFrom != nil && f.SyncedTo != nil && f.SyncedFrom.After(*f.SyncedTo) {
		return nil, 0, apperr.Validation("synced_from must not be after synced_to")
	}
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.repo.List(ctx, f, p)
}
