package compliance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/pkg/pagination"
)

// MaxExportRows bounds one audit log export.
const MaxExportRows = 10000

type Service struct {
	holds   LegalHoldRepository
	reviews ComplianceReviewRepository
	logs    AuditLogRepository
	tx      db.TxRunner
	audit   audit.Sink
	now     func() time.Time
}

func NewService(holds LegalHoldRepository, reviews ComplianceReviewRepository, logs AuditLogRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{holds: holds, reviews: reviews, logs: logs, tx: tx, audit: sink, now: time.Now}
}

// -- Legal Hold --

func (s *Service) CreateLegalHold(ctx context.Context, req CreateLegalHoldRequest) (*LegalHold, error) {
	h := req.model(auth.ActorID(ctx))
	if err := h.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, h.OrganizationID); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if h.PatientID != nil {
			ok, err := s.holds.PatientInOrganization(ctx, h.OrganizationID, *h.PatientID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Validation("patient %s is not an active patient of organization %s", *h.PatientID, h.OrganizationID)
			}
		}
		if err := s.holds.Create(ctx, h); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityLegalHold, h.ID).
			InOrganization(h.OrganizationID).
			With("matter_name", h.MatterName))
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) GetLegalHold(ctx context.Context, id uuid.UUID, includeDeleted bool) (*LegalHold, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.holds.Get
	if includeDeleted {
		get = s.holds.GetAny
	}
	h, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, h.OrganizationID); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) UpdateLegalHold(ctx context.Context, id uuid.UUID, req UpdateLegalHoldRequest) (*LegalHold, error) {
	var hold *LegalHold
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		h, err := s.holds.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, h.OrganizationID); err != nil {
			return err
		}
		if h.Status != HoldActive {
			return apperr.Conflict("legal hold %s is %s", id, h.Status)
		}
		if err := req.apply(h); err != nil {
			return err
		}
		if err := s.holds.Update(ctx, h); err != nil {
			return err
		}
		hold = h
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityLegalHold, h.ID).
			InOrganization(h.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// ReleaseLegalHold ends an active hold and records who released it.
func (s *Service) ReleaseLegalHold(ctx context.Context, id uuid.UUID) (*LegalHold, error) {
	var hold *LegalHold
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		h, err := s.holds.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, h.OrganizationID); err != nil {
			return err
		}
		if h.Status != HoldActive {
			return apperr.Conflict("legal hold %s is already %s", id, h.Status)
		}
		actor := auth.ActorID(ctx)
		at := s.now().UTC()
		h.Status = HoldReleased
		h.ReleasedBy = &actor
		h.ReleasedAt = &at
		if err := s.holds.Update(ctx, h); err != nil {
			return err
		}
		hold = h
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionRelease, EntityLegalHold, h.ID).
			InOrganization(h.OrganizationID))
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// DeleteLegalHold soft-deletes a released hold that has no open reviews.
func (s *Service) DeleteLegalHold(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		h, err := s.holds.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.EnsureOrganization(ctx, h.OrganizationID); err != nil {
			return err
		}
		if h.Status == HoldActive {
			return apperr.Conflict("legal hold %s must be released before it is deleted", id)
		}
		n, err := s.reviews.CountOpenForHold(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("legal hold %s has %d open compliance reviews", id, n)
		}
		if err := s.holds.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityLegalHold, id).
			InOrganization(h.OrganizationID))
	})
}

func (s *Service) ListLegalHolds(ctx context.Context, f LegalHoldFilter, p pagination.Params) ([]*LegalHold, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.holds.List(ctx, f, p)
}

// -- Compliance Review --

func (s *Service) CreateComplianceReview(ctx context.Context, req CreateComplianceReviewRequest) (*ComplianceReview, error) {
	rev, err := req.model()
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, rev.OrganizationID); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if rev.LegalHoldID != nil {
			h, err := s.holds.Get(ctx, *rev.LegalHoldID)
			if apperr.IsNotFound(err) {
				return apperr.Validation("legal hold %s does not exist", *rev.LegalHoldID)
			}
			if err != nil {
				return err
			}
			if h.OrganizationID != rev.OrganizationID {
				return apperr.Validation("legal hold %s belongs to another organization", h.ID)
			}
		}
		if err := s.reviews.Create(ctx, rev); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityComplianceReview, rev.ID).
			InOrganization(rev.OrganizationID).
			With("review_type", rev.ReviewType))
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *Service) GetComplianceReview(ctx context.Context, id uuid.UUID, includeDeleted bool) (*ComplianceReview, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.reviews.Get
	if includeDeleted {
		get = s.reviews.GetAny
	}
	rev, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, rev.OrganizationID); err != nil {
		return nil, err
	}
	return rev, nil
}

// getMutable loads a review that may still change.
func (s *Service) getMutable(ctx context.Context, id uuid.UUID) (*ComplianceReview, error) {
	rev, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, rev.OrganizationID); err != nil {
		return nil, err
	}
	if rev.Finalized() {
		return nil, apperr.Conflict("compliance review %s is finalized", id)
	}
	return rev, nil
}

func (s *Service) UpdateComplianceReview(ctx context.Context, id uuid.UUID, req UpdateComplianceReviewRequest) (*ComplianceReview, error) {
	var review *ComplianceReview
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rev, err := s.getMutable(ctx, id)
		if err != nil {
			return err
		}
		if err := req.apply(rev); err != nil {
			return err
		}
		if err := s.reviews.Update(ctx, rev); err != nil {
			return err
		}
		review = rev
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityComplianceReview, rev.ID).
			InOrganization(rev.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// FinalizeComplianceReview closes a review. Findings must be recorded first.
func (s *Service) FinalizeComplianceReview(ctx context.Context, id uuid.UUID) (*ComplianceReview, error) {
	var review *ComplianceReview
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rev, err := s.getMutable(ctx, id)
		if err != nil {
			return err
		}
		if rev.Findings == nil || strings.TrimSpace(*rev.Findings) == "" {
			return apperr.Validation("compliance review %s has no findings", id)
		}
		at := s.now().UTC()
		rev.Status = ReviewFinalized
		rev.FinalizedAt = &at
		if err := s.reviews.Update(ctx, rev); err != nil {
			return err
		}
		review = rev
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionFinalize, EntityComplianceReview, rev.ID).
			InOrganization(rev.OrganizationID))
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) DeleteComplianceReview(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		rev, err := s.getMutable(ctx, id)
		if err != nil {
			return err
		}
		if err := s.reviews.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityComplianceReview, id).
			InOrganization(rev.OrganizationID))
	})
}

func (s *Service) ListComplianceReviews(ctx context.Context, f ComplianceReviewFilter, p pagination.Params) ([]*ComplianceReview, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.reviews.List(ctx, f, p)
}

// -- Audit Log --

func (s *Service) ListAuditLogs(ctx context.Context, f AuditLogFilter, p pagination.Params) ([]*audit.Event, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.logs.List(ctx, f, p)
}

// ExportAuditLogs returns every matching row, up to MaxExportRows. A filter
// matching more rows is rejected rather than silently truncated.
func (s *Service) ExportAuditLogs(ctx context.Context, f AuditLogFilter) ([]*audit.Event, error) {
	events, total, err := s.ListAuditLogs(ctx, f, pagination.Params{Page: 1, Limit: MaxExportRows})
	if err != nil {
		return nil, err
	}
	if total > MaxExportRows {
		return nil, apperr.Validation("export matches %d rows; narrow the filter to at most %d", total, MaxExportRows)
	}
	return events, nil
}
