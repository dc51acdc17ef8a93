package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

// -- In-memory Repositories --

type memOrgRepo struct {
	t *memstore.Table[Organization]
}

func newMemOrgRepo() *memOrgRepo {
	return &memOrgRepo{t: memstore.NewTable(
		func(o Organization) uuid.UUID { return o.ID },
		func(o Organization) *time.Time { return o.DeletedAt },
	)}
}

func (m *memOrgRepo) Create(_ context.Context, org *Organization) error {
	now := time.Now().UTC()
	org.ID = uuid.New()
	org.CreatedAt, org.UpdatedAt = now, now
	m.t.Insert(*org)
	return nil
}

func (m *memOrgRepo) Get(_ context.Context, id uuid.UUID) (*Organization, error) {
	o, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityOrganization)
	}
	return &o, nil
}

func (m *memOrgRepo) GetAny(_ context.Context, id uuid.UUID) (*Organization, error) {
	o, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityOrganization)
	}
	return &o, nil
}

func (m *memOrgRepo) Update(_ context.Context, org *Organization) error {
	org.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*org) {
		return apperr.NotFound(EntityOrganization)
	}
	return nil
}

func (m *memOrgRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	o, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityOrganization)
	}
	now := time.Now().UTC()
	o.DeletedAt, o.UpdatedAt = &now, now
	m.t.Replace(o)
	return nil
}

func (m *memOrgRepo) List(_ context.Context, f OrganizationFilter, p pagination.Params) ([]*Organization, int, error) {
	rows := m.t.Select(true, func(o Organization) bool {
		return memstore.Eq(f.ID, o.ID) &&
			memstore.Eq(f.Code, o.Code) &&
			memstore.Eq(f.Status, o.Status) &&
			memstore.EqPtr(f.TypeCode, o.TypeCode) &&
			memstore.Contains(f.Name, o.Name, true) &&
			memstore.InRange(f.CreatedFrom, f.CreatedTo, o.CreatedAt)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(o Organization, col string) any {
		switch col {
		case "name":
			return o.Name
		case "code":
			return o.Code
		case "status":
			return o.Status
		case "updated_at":
			return o.UpdatedAt
		}
		return o.CreatedAt
	}, func(o Organization) uuid.UUID { return o.ID }), p)
	return out, total, nil
}

func (m *memOrgRepo) CodeExists(_ context.Context, code string, excludeID uuid.UUID) (bool, error) {
	return len(m.t.Select(false, func(o Organization) bool {
		return o.Code == code && o.ID != excludeID
	})) > 0, nil
}

type memDeptRepo struct {
	t *memstore.Table[Department]
}

func newMemDeptRepo() *memDeptRepo {
	return &memDeptRepo{t: memstore.NewTable(
		func(d Department) uuid.UUID { return d.ID },
		func(d Department) *time.Time { return d.DeletedAt },
	)}
}

func (m *memDeptRepo) Create(_ context.Context, dept *Department) error {
	now := time.Now().UTC()
	dept.ID = uuid.New()
	dept.CreatedAt, dept.UpdatedAt = now, now
	m.t.Insert(*dept)
	return nil
}

func (m *memDeptRepo) Get(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityDepartment)
	}
	return &d, nil
}

func (m *memDeptRepo) GetAny(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityDepartment)
	}
	return &d, nil
}

func (m *memDeptRepo) Update(_ context.Context, dept *Department) error {
	dept.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*dept) {
		return apperr.NotFound(EntityDepartment)
	}
	return nil
}

func (m *memDeptRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	d, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityDepartment)
	}
	now := time.Now().UTC()
	d.DeletedAt, d.UpdatedAt = &now, now
	m.t.Replace(d)
	return nil
}

func (m *memDeptRepo) List(_ context.Context, f DepartmentFilter, p pagination.Params) ([]*Department, int, error) {
	rows := m.t.Select(true, func(d Department) bool {
		return memstore.Eq(f.OrganizationID, d.OrganizationID) &&
			memstore.Eq(f.Code, d.Code) &&
			memstore.EqPtr(f.ManagerID, d.ManagerID) &&
			memstore.Eq(f.Active, d.Active) &&
			memstore.Contains(f.Name, d.Name, true)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(d Department, col string) any {
		switch col {
		case "name":
			return d.Name
		case "code":
			return d.Code
		}
		return d.CreatedAt
	}, func(d Department) uuid.UUID { return d.ID }), p)
	return out, total, nil
}

func (m *memDeptRepo) CodeExists(_ context.Context, orgID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	return len(m.t.Select(false, func(d Department) bool {
		return d.OrganizationID == orgID && d.Code == code && d.ID != excludeID
	})) > 0, nil
}

func (m *memDeptRepo) HasActive(_ context.Context, orgID uuid.UUID) (bool, error) {
	return m.t.Any(func(d Department) bool { return d.OrganizationID == orgID }), nil
}

type memLocaleRepo struct {
	t *memstore.Table[LocaleSetting]
}

func newMemLocaleRepo() *memLocaleRepo {
	return &memLocaleRepo{t: memstore.NewTable(
		func(l LocaleSetting) uuid.UUID { return l.ID },
		func(l LocaleSetting) *time.Time { return l.DeletedAt },
	)}
}

func (m *memLocaleRepo) Create(_ context.Context, l *LocaleSetting) error {
	now := time.Now().UTC()
	l.ID = uuid.New()
	l.CreatedAt, l.UpdatedAt = now, now
	m.t.Insert(*l)
	return nil
}

func (m *memLocaleRepo) Get(_ context.Context, id uuid.UUID) (*LocaleSetting, error) {
	l, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityLocaleSetting)
	}
	return &l, nil
}

func (m *memLocaleRepo) GetAny(_ context.Context, id uuid.UUID) (*LocaleSetting, error) {
	l, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityLocaleSetting)
	}
	return &l, nil
}

func (m *memLocaleRepo) Update(_ context.Context, l *LocaleSetting) error {
	l.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*l) {
		return apperr.NotFound(EntityLocaleSetting)
	}
	return nil
}

func (m *memLocaleRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	l, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityLocaleSetting)
	}
	now := time.Now().UTC()
	l.DeletedAt, l.UpdatedAt = &now, now
	m.t.Replace(l)
	return nil
}

func (m *memLocaleRepo) List(_ context.Context, f LocaleSettingFilter, p pagination.Params) ([]*LocaleSetting, int, error) {
	rows := m.t.Select(true, func(l LocaleSetting) bool {
		return memstore.Eq(f.OrganizationID, l.OrganizationID) &&
			memstore.EqPtr(f.DepartmentID, l.DepartmentID) &&
			memstore.Eq(f.Language, l.Language)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(l LocaleSetting, col string) any {
		if col == "language" {
			return l.Language
		}
		return l.CreatedAt
	}, func(l LocaleSetting) uuid.UUID { return l.ID }), p)
	return out, total, nil
}

func (m *memLocaleRepo) ActiveExists(_ context.Context, orgID uuid.UUID, deptID *uuid.UUID) (bool, error) {
	return m.t.Any(func(l LocaleSetting) bool {
		if l.OrganizationID != orgID {
			return false
		}
		if deptID == nil || l.DepartmentID == nil {
			return deptID == nil && l.DepartmentID == nil
		}
		return *deptID == *l.DepartmentID
	}), nil
}

func (m *memLocaleRepo) HasActiveForDepartment(_ context.Context, deptID uuid.UUID) (bool, error) {
	return m.t.Any(func(l LocaleSetting) bool { return memstore.EqPtr(&deptID, l.DepartmentID) }), nil
}
