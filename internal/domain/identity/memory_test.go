package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

type memPatientRepo struct {
	t       *memstore.Table[Patient]
	blocked map[uuid.UUID]string
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{
		t: memstore.NewTable(
			func(p Patient) uuid.UUID { return p.ID },
			func(p Patient) *time.Time { return p.DeletedAt },
		),
		blocked: make(map[uuid.UUID]string),
	}
}

func (m *memPatientRepo) Create(_ context.Context, p *Patient) error {
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now
	m.t.Insert(*p)
	return nil
}

func (m *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityPatient)
	}
	return &p, nil
}

func (m *memPatientRepo) GetAny(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityPatient)
	}
	return &p, nil
}

func (m *memPatientRepo) Update(_ context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*p) {
		return apperr.NotFound(EntityPatient)
	}
	return nil
}

func (m *memPatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityPatient)
	}
	now := time.Now().UTC()
	p.DeletedAt, p.UpdatedAt = &now, now
	m.t.Replace(p)
	return nil
}

func (m *memPatientRepo) List(_ context.Context, f PatientFilter, pg pagination.Params) ([]*Patient, int, error) {
	rows := m.t.Select(true, func(p Patient) bool {
		nameOK := memstore.Contains(f.Name, p.FirstName, true) || memstore.Contains(f.Name, p.LastName, true)
		return nameOK &&
			memstore.Eq(f.OrganizationID, p.OrganizationID) &&
			memstore.Eq(f.MRN, p.MRN) &&
			memstore.EqPtr(f.Gender, p.Gender) &&
			memstore.Eq(f.Active, p.Active) &&
			memstore.InRangePtr(f.BornFrom, f.BornTo, p.BirthDate)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(p Patient, col string) any {
		switch col {
		case "last_name":
			return p.LastName
		case "first_name":
			return p.FirstName
		case "mrn":
			return p.MRN
		case "birth_date":
			return p.BirthDate
		}
		return p.CreatedAt
	}, func(p Patient) uuid.UUID { return p.ID }), pg)
	return out, total, nil
}

func (m *memPatientRepo) MRNExists(_ context.Context, orgID uuid.UUID, mrn string, excludeID uuid.UUID) (bool, error) {
	return len(m.t.Select(false, func(p Patient) bool {
		return p.OrganizationID == orgID && p.MRN == mrn && p.ID != excludeID
	})) > 0, nil
}

func (m *memPatientRepo) BlockingDependency(_ context.Context, id uuid.UUID) (string, error) {
	return m.blocked[id], nil
}
