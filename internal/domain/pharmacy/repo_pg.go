package pharmacy

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

type integrationRepoPG struct {
	pool *pgxpool.Pool
}

func NewPharmacyIntegrationRepo(pool *pgxpool.Pool) PharmacyIntegrationRepository {
	return &integrationRepoPG{pool: pool}
}

func (r *integrationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const integrationColumns = `id, organization_id, vendor, name, endpoint_url, status, last_sync_at,
	created_at, updated_at, deleted_at`

func scanIntegration(row pgx.Row) (*PharmacyIntegration, error) {
	var p PharmacyIntegration
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.Vendor, &p.Name, &p.EndpointURL, &p.Status, &p.LastSyncAt,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *integrationRepoPG) Create(ctx context.Context, p *PharmacyIntegration) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pharmacy_integration (id, organization_id, vendor, name, endpoint_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.OrganizationID, p.Vendor, p.Name, p.EndpointURL, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, EntityPharmacyIntegration)
}

func (r *integrationRepoPG) Get(ctx context.Context, id uuid.UUID) (*PharmacyIntegration, error) {
	p, err := query.Get(ctx, r.conn(ctx), "pharmacy_integration", integrationColumns, id, true, scanIntegration)
	return p, db.Classify(err, EntityPharmacyIntegration)
}

func (r *integrationRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*PharmacyIntegration, error) {
	p, err := query.Get(ctx, r.conn(ctx), "pharmacy_integration", integrationColumns, id, false, scanIntegration)
	return p, db.Classify(err, EntityPharmacyIntegration)
}

func (r *integrationRepoPG) Update(ctx context.Context, p *PharmacyIntegration) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE pharmacy_integration SET
			vendor = $2, name = $3, endpoint_url = $4, status = $5, last_sync_at = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		p.ID, p.Vendor, p.Name, p.EndpointURL, p.Status, p.LastSyncAt,
	).Scan(&p.UpdatedAt)
	return db.Classify(err, EntityPharmacyIntegration)
}

func (r *integrationRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "pharmacy_integration", id)
	if err != nil {
		return db.Classify(err, EntityPharmacyIntegration)
	}
	return db.RequireAffected(tag, EntityPharmacyIntegration)
}

func (r *integrationRepoPG) List(ctx context.Context, f PharmacyIntegrationFilter, p pagination.Params) ([]*PharmacyIntegration, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "vendor", f.Vendor)
	query.Eq(b, "status", f.Status)
	b.Contains("name", f.Name, true)
	query.Range(b, "last_sync_at", f.SyncedFrom, f.SyncedTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "pharmacy_integration",
		Columns: integrationColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanIntegration)
}

func (r *integrationRepoPG) ActiveExists(ctx context.Context, orgID uuid.UUID, vendor string, excludeID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "pharmacy_integration",
		query.New().ActiveOnly().Where("organization_id = ?", orgID).Where("vendor = ?", vendor).Where("id <> ?", excludeID))
}
