package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/memstore"
	"github.com/ehr/admin/pkg/pagination"
)

type memIntegrationRepo struct {
	t *memstore.Table[PharmacyIntegration]
}

func newMemIntegrationRepo() *memIntegrationRepo {
	return &memIntegrationRepo{t: memstore.NewTable(
		func(p PharmacyIntegration) uuid.UUID { return p.ID },
		func(p PharmacyIntegration) *time.Time { return p.DeletedAt },
	)}
}

func (m *memIntegrationRepo) Create(_ context.Context, p *PharmacyIntegration) error {
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now
	m.t.Insert(*p)
	return nil
}

func (m *memIntegrationRepo) Get(_ context.Context, id uuid.UUID) (*PharmacyIntegration, error) {
	p, ok := m.t.Get(id, true)
	if !ok {
		return nil, apperr.NotFound(EntityPharmacyIntegration)
	}
	return &p, nil
}

func (m *memIntegrationRepo) GetAny(_ context.Context, id uuid.UUID) (*PharmacyIntegration, error) {
	p, ok := m.t.Get(id, false)
	if !ok {
		return nil, apperr.NotFound(EntityPharmacyIntegration)
	}
	return &p, nil
}

func (m *memIntegrationRepo) Update(_ context.Context, p *PharmacyIntegration) error {
	p.UpdatedAt = time.Now().UTC()
	if !m.t.Replace(*p) {
		return apperr.NotFound(EntityPharmacyIntegration)
	}
	return nil
}

func (m *memIntegrationRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := m.t.Get(id, true)
	if !ok {
		return apperr.NotFound(EntityPharmacyIntegration)
	}
	now := time.Now().UTC()
	p.DeletedAt, p.UpdatedAt = &now, now
	m.t.Replace(p)
	return nil
}

func (m *memIntegrationRepo) List(_ context.Context, f PharmacyIntegrationFilter, p pagination.Params) ([]*PharmacyIntegration, int, error) {
	rows := m.t.Select(true, func(x PharmacyIntegration) bool {
		return memstore.Eq(f.OrganizationID, x.OrganizationID) &&
			memstore.Eq(f.Vendor, x.Vendor) &&
			memstore.Eq(f.Status, x.Status) &&
			memstore.Contains(f.Name, x.Name, true) &&
			memstore.InRangePtr(f.SyncedFrom, f.SyncedTo, x.LastSyncAt)
	})
	out, total := memstore.Page(rows, memstore.Less(f.Order, func(x PharmacyIntegration, col string) any {
		switch col {
		case "name":
			return x.Name
		case "vendor":
			return x.Vendor
		case "status":
			return x.Status
		case "last_sync_at":
			return x.LastSyncAt
		}
		return x.CreatedAt
	}, func(x PharmacyIntegration) uuid.UUID { return x.ID }), p)
	return out, total, nil
}

func (m *memIntegrationRepo) ActiveExists(_ context.Context, orgID uuid.UUID, vendor string, excludeID uuid.UUID) (bool, error) {
	return m.t.Any(func(p PharmacyIntegration) bool {
		return p.OrganizationID == orgID && p.Vendor == vendor && p.ID != excludeID
	}), nil
}
