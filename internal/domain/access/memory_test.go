package access

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

// -- In-memory Role Repository --

type memRoleRepo struct {
	t *memstore.Table[Role]
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{t: memstore.NewTable(
		func(r Role) uuid.UUID { return r.ID },
		func(r Role) *time.Time { return r.DeletedAt },
	)}
}

func (m *memRoleRepo) Create(_ context.Context, r *Role) error {
	now := time.Now().UTC()
	r.ID = uuid.New()
	r.CreatedAt, r.UpdatedAt = now, now
	m.t.Insert(*r)
	return nil
}

func (m *memRoleRepo) Get(_ context.Context, id uuid.UUID) (*Role, error) {
	r, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityRole)
	}
	return &r, nil
}

func (m *memRoleRepo) GetAny(_ context.Context, id uuid.UUID) (*Role, error) {
	r, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityRole)
	}
	return &r, nil
}

func (m *memRoleRepo) Update(_ context.Context, r *Role) error {
	r.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*r) {
		return apperr.NotFound(EntityRole)
	}
	return nil
}

func (m *memRoleRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityRole)
	}
	now := time.Now().UTC()
	r.DeletedAt, r.UpdatedAt = &now, now
	m.t.Replace(r)
	return nil
}

func (m *memRoleRepo) List(_ context.Context, f RoleFilter, p pagination.Params) ([]*Role, int, error) {
	rows := m.t.Select(true, func(r Role) bool {
		return memstore.Eq(f.OrganizationID, r.OrganizationID) &&
			memstore.Contains(f.Name, r.Name, true) &&
			(f.Permission == nil || slices.Contains(r.Permissions, *f.Permission)) &&
			memstore.InRange(f.CreatedFrom, f.CreatedTo, r.CreatedAt)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(r Role, col string) any {
		switch col {
		case "name":
			return r.Name
		case "updated_at":
			return r.UpdatedAt
		}
		return r.CreatedAt
	}, func(r Role) uuid.UUID { return r.ID }), p)
	return out, total, nil
}

func (m *memRoleRepo) NameExists(_ context.Context, orgID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	return len(m.t.Select(false, func(r Role) bool {
		return r.OrganizationID == orgID && r.Name == name && r.ID != excludeID
	})) > 0, nil
}

// -- In-memory Role Assignment Repository --

type memAssignmentRepo struct {
	t *memstore.Table[RoleAssignment]
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{t: memstore.NewTable(func(a RoleAssignment) uuid.UUID { return a.ID }, nil)}
}

func (m *memAssignmentRepo) Create(_ context.Context, a *RoleAssignment) error {
	now := time.Now().UTC()
	a.ID = uuid.New()
	a.CreatedAt, a.UpdatedAt = now, now
	m.t.Insert(*a)
	return nil
}

func (m *memAssignmentRepo) Get(_ context.Context, id uuid.UUID) (*RoleAssignment, error) {
	a, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityRoleAssignment)
	}
	return &a, nil
}

func (m *memAssignmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if !m.t.Remove(id) {
		return apperr.NotFound(EntityRoleAssignment)
	}
	return nil
}

func (m *memAssignmentRepo) List(_ context.Context, f RoleAssignmentFilter, p pagination.Params) ([]*RoleAssignment, int, error) {
	rows := m.t.Select(true, func(a RoleAssignment) bool {
		return memstore.Eq(f.OrganizationID, a.OrganizationID) &&
			memstore.Eq(f.RoleID, a.RoleID) &&
			memstore.Eq(f.UserID, a.UserID)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(a RoleAssignment, _ string) any {
		return a.CreatedAt
	}, func(a RoleAssignment) uuid.UUID { return a.ID }), p)
	return out, total, nil
}

func (m *memAssignmentRepo) Exists(_ context.Context, roleID, userID uuid.UUID) (bool, error) {
	return m.t.Any(func(a RoleAssignment) bool { return a.RoleID == roleID && a.UserID == userID }), nil
}

func (m *memAssignmentRepo) CountForRole(_ context.Context, roleID uuid.UUID) (int, error) {
	return len(m.t.Select(true, func(a RoleAssignment) bool { return a.RoleID == roleID })), nil
}

// -- In-memory MFA Factor Repository --

type memFactorRepo struct {
	t *memstore.Table[MFAFactor]
}

func newMemFactorRepo() *memFactorRepo {
	return &memFactorRepo{t: memstore.NewTable(func(f MFAFactor) uuid.UUID { return f.ID }, nil)}
}

func (m *memFactorRepo) Create(_ context.Context, f *MFAFactor) error {
	now := time.Now().UTC()
	f.ID = uuid.New()
	f.CreatedAt, f.UpdatedAt = now, now
	m.t.Insert(*f)
	return nil
}

func (m *memFactorRepo) Get(_ context.Context, id uuid.UUID) (*MFAFactor, error) {
	f, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityMFAFactor)
	}
	return &f, nil
}

func (m *memFactorRepo) Update(_ context.Context, f *MFAFactor) error {
	f.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*f) {
		return apperr.NotFound(EntityMFAFactor)
	}
	return nil
}

func (m *memFactorRepo) Delete(_ context.Context, id uuid.UUID) error {
	if !m.t.Remove(id) {
		return apperr.NotFound(EntityMFAFactor)
	}
	return nil
}

func (m *memFactorRepo) List(_ context.Context, f MFAFactorFilter, p pagination.Params) ([]*MFAFactor, int, error) {
	rows := m.t.Select(true, func(x MFAFactor) bool {
		return memstore.EqPtr(f.OrganizationID, x.OrganizationID) &&
			memstore.Eq(f.UserID, x.UserID) &&
			memstore.Eq(f.FactorType, x.FactorType) &&
			(f.Verified == nil || *f.Verified == x.Verified())
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(x MFAFactor, col string) any {
		switch col {
		case "verified_at":
			return x.VerifiedAt
		case "last_used_at":
			return x.LastUsedAt
		case "label":
			return x.Label
		}
		return x.CreatedAt
	}, func(x MFAFactor) uuid.UUID { return x.ID }), p)
	return out, total, nil
}

func (m *memFactorRepo) Exists(_ context.Context, userID uuid.UUID, factorType, label string) (bool, error) {
	return m.t.Any(func(f MFAFactor) bool {
		return f.UserID == userID && f.FactorType == factorType && f.Label == label
	}), nil
}
