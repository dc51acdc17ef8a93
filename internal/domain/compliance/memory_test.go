package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

// -- In-memory Legal Hold Repository --

type memHoldRepo struct {
	t        *memstore.Table[LegalHold]
	patients map[uuid.UUID]uuid.UUID
}

func newMemHoldRepo() *memHoldRepo {
	return &memHoldRepo{
		t: memstore.NewTable(
			func(h LegalHold) uuid.UUID { return h.ID },
			func(h LegalHold) *time.Time { return h.DeletedAt },
		),
		patients: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *memHoldRepo) Create(_ context.Context, h *LegalHold) error {
	now := time.Now().UTC()
	h.ID = uuid.New()
	h.CreatedAt, h.UpdatedAt = now, now
	m.t.Insert(*h)
	return nil
}

func (m *memHoldRepo) Get(_ context.Context, id uuid.UUID) (*LegalHold, error) {
	h, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityLegalHold)
	}
	return &h, nil
}

func (m *memHoldRepo) GetAny(_ context.Context, id uuid.UUID) (*LegalHold, error) {
	h, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityLegalHold)
	}
	return &h, nil
}

func (m *memHoldRepo) Update(_ context.Context, h *LegalHold) error {
	h.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*h) {
		return apperr.NotFound(EntityLegalHold)
	}
	return nil
}

func (m *memHoldRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	h, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityLegalHold)
	}
	now := time.Now().UTC()
	h.DeletedAt, h.UpdatedAt = &now, now
	m.t.Replace(h)
	return nil
}

func (m *memHoldRepo) List(_ context.Context, f LegalHoldFilter, p pagination.Params) ([]*LegalHold, int, error) {
	rows := m.t.Select(true, func(h LegalHold) bool {
		return memstore.Eq(f.OrganizationID, h.OrganizationID) &&
			memstore.EqPtr(f.PatientID, h.PatientID) &&
			memstore.Eq(f.Status, h.Status) &&
			memstore.Contains(f.MatterName, h.MatterName, true) &&
			memstore.InRange(f.CreatedFrom, f.CreatedTo, h.CreatedAt)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(h LegalHold, col string) any {
		switch col {
		case "matter_name":
			return h.MatterName
		case "status":
			return h.Status
		case "released_at":
			return h.ReleasedAt
		}
		return h.CreatedAt
	}, func(h LegalHold) uuid.UUID { return h.ID }), p)
	return out, total, nil
}

func (m *memHoldRepo) PatientInOrganization(_ context.Context, orgID, patientID uuid.UUID) (bool, error) {
	org, ok := m.patients[patientID]
	return ok && org == orgID, nil
}

// -- In-memory Compliance Review Repository --

type memReviewRepo struct {
	t *memstore.Table[ComplianceReview]
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{t: memstore.NewTable(
		func(r ComplianceReview) uuid.UUID { return r.ID },
		func(r ComplianceReview) *time.Time { return r.DeletedAt },
	)}
}

func (m *memReviewRepo) Create(_ context.Context, r *ComplianceReview) error {
	now := time.Now().UTC()
	r.ID = uuid.New()
	r.CreatedAt, r.UpdatedAt = now, now
	m.t.Insert(*r)
	return nil
}

func (m *memReviewRepo) Get(_ context.Context, id uuid.UUID) (*ComplianceReview, error) {
	r, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityComplianceReview)
	}
	return &r, nil
}

func (m *memReviewRepo) GetAny(_ context.Context, id uuid.UUID) (*ComplianceReview, error) {
	r, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityComplianceReview)
	}
	return &r, nil
}

func (m *memReviewRepo) Update(_ context.Context, r *ComplianceReview) error {
	cur, ok := m.t.Get(r.ID, true)
	if !ok || cur.Finalized() {
		return apperr.NotFound(EntityComplianceReview)
	}
	r.UpdatedAt = time.Now().UTC()
	m.t.Replace(*r)
	return nil
}

func (m *memReviewRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityComplianceReview)
	}
	now := time.Now().UTC()
	r.DeletedAt, r.UpdatedAt = &now, now
	m.t.Replace(r)
	return nil
}

func (m *memReviewRepo) List(_ context.Context, f ComplianceReviewFilter, p pagination.Params) ([]*ComplianceReview, int, error) {
	rows := m.t.Select(true, func(r ComplianceReview) bool {
		return memstore.Eq(f.OrganizationID, r.OrganizationID) &&
			memstore.EqPtr(f.LegalHoldID, r.LegalHoldID) &&
			memstore.EqPtr(f.ReviewerID, r.ReviewerID) &&
			memstore.Eq(f.ReviewType, r.ReviewType) &&
			memstore.Eq(f.Status, r.Status) &&
			memstore.InRangePtr(f.DueFrom, f.DueTo, r.DueDate)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(r ComplianceReview, col string) any {
		switch col {
		case "due_date":
			return r.DueDate
		case "status":
			return r.Status
		case "finalized_at":
			return r.FinalizedAt
		}
		return r.CreatedAt
	}, func(r ComplianceReview) uuid.UUID { return r.ID }), p)
	return out, total, nil
}

func (m *memReviewRepo) CountOpenForHold(_ context.Context, holdID uuid.UUID) (int, error) {
	return len(m.t.Select(true, func(r ComplianceReview) bool {
		return r.LegalHoldID != nil && *r.LegalHoldID == holdID && !r.Finalized()
	})), nil
}

// -- Audit Log backed by the memory sink --

type memAuditLogRepo struct {
	sink *audit.MemorySink
}

func (m *memAuditLogRepo) List(_ context.Context, f AuditLogFilter, p pagination.Params) ([]*audit.Event, int, error) {
	var rows []audit.Event
	for _, e := range m.sink.Events() {
		action := string(e.Action)
		if memstore.EqPtr(f.OrganizationID, e.OrganizationID) &&
			memstore.Eq(f.UserID, e.UserID) &&
			memstore.Eq(f.ActionType, action) &&
			memstore.Eq(f.EntityType, e.EntityType) &&
			memstore.Eq(f.EntityID, e.EntityID) &&
			memstore.InRange(f.CreatedFrom, f.CreatedTo, e.CreatedAt) {
			rows = append(rows, e)
		}
	}
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(e audit.Event, col string) any {
		switch col {
		case "action_type":
			return string(e.Action)
		case "related_entity_type":
			return e.EntityType
		}
		return e.CreatedAt
	}, func(e audit.Event) uuid.UUID { return e.ID }), p)
	return out, total, nil
}
