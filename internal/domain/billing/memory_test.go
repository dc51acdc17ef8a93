package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

// -- In-memory Billing Code Repository --

type memCodeRepo struct {
	t *memstore.Table[BillingCode]
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{t: memstore.NewTable(func(c BillingCode) uuid.UUID { return c.ID }, nil)}
}

func (m *memCodeRepo) Create(_ context.Context, c *BillingCode) error {
	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	m.t.Insert(*c)
	return nil
}

func (m *memCodeRepo) Get(_ context.Context, id uuid.UUID) (*BillingCode, error) {
	c, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityBillingCode)
	}
	return &c, nil
}

func (m *memCodeRepo) Update(_ context.Context, c *BillingCode) error {
	c.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*c) {
		return apperr.NotFound(EntityBillingCode)
	}
	return nil
}

func (m *memCodeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if !m.t.Remove(id) {
		return apperr.NotFound(EntityBillingCode)
	}
	return nil
}

func (m *memCodeRepo) List(_ context.Context, f BillingCodeFilter, p pagination.Params) ([]*BillingCode, int, error) {
	rows := m.t.Select(false, func(c BillingCode) bool {
		return memstore.Eq(f.OrganizationID, c.OrganizationID) &&
			memstore.Eq(f.Code, c.Code) &&
			memstore.Eq(f.CodeSystem, c.CodeSystem) &&
			memstore.Eq(f.Active, c.Active) &&
			memstore.Contains(f.Description, c.Description, true) &&
			memstore.Between(f.PriceMin, f.PriceMax, c.UnitPriceCents)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(c BillingCode, col string) any {
		switch col {
		case "code":
			return c.Code
		case "unit_price_cents":
			return c.UnitPriceCents
		}
		return c.CreatedAt
	}, func(c BillingCode) uuid.UUID { return c.ID }), p)
	return out, total, nil
}

func (m *memCodeRepo) CodeExists(_ context.Context, orgID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	return m.t.Any(func(c BillingCode) bool {
		return c.OrganizationID == orgID && c.Code == code && c.ID != excludeID
	}), nil
}

// -- In-memory Billing Item Repository --

type memItemRepo struct {
	t        *memstore.Table[BillingItem]
	patients map[uuid.UUID]uuid.UUID // patient id -> organization id
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{
		t:        memstore.NewTable(func(i BillingItem) uuid.UUID { return i.ID }, nil),
		patients: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *memItemRepo) addPatient(orgID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.patients[id] = orgID
	return id
}

func (m *memItemRepo) Create(_ context.Context, i *BillingItem) error {
	now := time.Now().UTC()
	i.ID = uuid.New()
	i.CreatedAt, i.UpdatedAt = now, now
	m.t.Insert(*i)
	return nil
}

func (m *memItemRepo) Get(_ context.Context, id uuid.UUID) (*BillingItem, error) {
	i, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityBillingItem)
	}
	return &i, nil
}

func (m *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	if !m.t.Remove(id) {
		return apperr.NotFound(EntityBillingItem)
	}
	return nil
}

func (m *memItemRepo) List(_ context.Context, f BillingItemFilter, p pagination.Params) ([]*BillingItem, int, error) {
	rows := m.t.Select(false, func(i BillingItem) bool {
		return memstore.Eq(f.OrganizationID, i.OrganizationID) &&
			memstore.Eq(f.BillingCodeID, i.BillingCodeID) &&
			memstore.Eq(f.PatientID, i.PatientID) &&
			memstore.EqPtr(f.AppointmentID, i.AppointmentID) &&
			memstore.InRange(f.ServiceFrom, f.ServiceTo, i.ServiceDate)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(i BillingItem, col string) any {
		switch col {
		case "service_date":
			return i.ServiceDate
		case "quantity":
			return i.Quantity
		}
		return i.CreatedAt
	}, func(i BillingItem) uuid.UUID { return i.ID }), p)
	return out, total, nil
}

func (m *memItemRepo) CountForCode(_ context.Context, codeID uuid.UUID) (int, error) {
	return len(m.t.Select(false, func(i BillingItem) bool { return i.BillingCodeID == codeID })), nil
}

func (m *memItemRepo) PatientInOrganization(_ context.Context, orgID, patientID uuid.UUID) (bool, error) {
	org, ok := m.patients[patientID]
	return ok && org == orgID, nil
}
