package billing

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
	codes BillingCodeRepository
	items BillingItemRepository
	tx    db.TxRunner
	audit audit.Sink
}

func NewService(codes BillingCodeRepository, items BillingItemRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{codes: codes, items: items, tx: tx, audit: sink}
}

// -- Billing Code --

func (s *Service) CreateBillingCode(ctx context.Context, req CreateBillingCodeRequest) (*BillingCode, error) {
	c := req.model()
	if err := c.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, c.OrganizationID); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.codes.CodeExists(ctx, c.OrganizationID, c.Code, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("billing code %q already exists in organization %s", c.Code, c.OrganizationID)
		}
		if err := s.codes.Create(ctx, c); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityBillingCode, c.ID).
			InOrganization(c.OrganizationID).
			With("code", c.Code))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetBillingCode(ctx context.Context, id uuid.UUID) (*BillingCode, error) {
	c, err := s.codes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, c.OrganizationID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateBillingCode(ctx context.Context, id uuid.UUID, req UpdateBillingCodeRequest) (*BillingCode, error) {
	var code *BillingCode
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.codes.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, c.OrganizationID); err != nil {
			return err
		}
		before := c.Code
		if err := req.apply(c); err != nil {
			return err
		}
		if c.Code != before {
			taken, err := s.codes.CodeExists(ctx, c.OrganizationID, c.Code, c.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("billing code %q already exists in organization %s", c.Code, c.OrganizationID)
			}
		}
		if err := s.codes.Update(ctx, c); err != nil {
			return err
		}
		code = c
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityBillingCode, c.ID).
			InOrganization(c.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

// DeleteBillingCode removes a code that no billing item references.
func (s *Service) DeleteBillingCode(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.codes.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, c.OrganizationID); err != nil {
			return err
		}
		n, err := s.items.CountForCode(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("billing code %q is referenced by %d billing items", c.Code, n)
		}
		if err := s.codes.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityBillingCode, id).
			InOrganization(c.OrganizationID).
			With("code", c.Code))
	})
}

func (s *Service) ListBillingCodes(ctx context.Context, f BillingCodeFilter, p pagination.Params) ([]*BillingCode, int, error) {
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return nil, 0, apperr.Validation("price_min cannot exceed price_max")
	}
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.codes.List(ctx, f, p)
}

// -- Billing Item --

// CreateBillingItem charges an active code of the same organization to one
// of its patients.
func (s *Service) CreateBillingItem(ctx context.Context, req CreateBillingItemRequest) (*BillingItem, error) {
	item, err := req.model()
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, item.OrganizationID); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		code, err := s.codes.Get(ctx, item.BillingCodeID)
		if apperr.IsNotFound(err) {
			return apperr.Validation("billing code %s does not exist", item.BillingCodeID)
		}
		if err != nil {
			return err
		}
		if code.OrganizationID != item.OrganizationID {
			return apperr.Validation("billing code %s belongs to another organization", code.ID)
		}
		if !code.Active {
			return apperr.Validation("billing code %q is inactive", code.Code)
		}
		ok, err := s.items.PatientInOrganization(ctx, item.OrganizationID, item.PatientID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("patient %s is not an active patient of organization %s", item.PatientID, item.OrganizationID)
		}
		if req.UnitPriceCents == nil {
			item.UnitPriceCents = code.UnitPriceCents
		}
		if err := s.items.Create(ctx, item); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityBillingItem, item.ID).
			InOrganization(item.OrganizationID).
			With("billing_code_id", code.ID.String()).
			With("total_cents", item.TotalCents()))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) GetBillingItem(ctx context.Context, id uuid.UUID) (*BillingItem, error) {
	i, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, i.OrganizationID); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) DeleteBillingItem(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		i, err := s.items.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, i.OrganizationID); err != nil {
			return err
		}
		if err := s.items.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityBillingItem, id).
			InOrganization(i.OrganizationID))
	})
}

func (s *Service) ListBillingItems(ctx context.Context, f BillingItemFilter, p pagination.Params) ([]*BillingItem, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.items.List(ctx, f, p)
}
