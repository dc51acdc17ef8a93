package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// -- Billing Code Repository --

type codeRepoPG struct {
	pool *pgxpool.Pool
}

func NewBillingCodeRepo(pool *pgxpool.Pool) BillingCodeRepository {
	return &codeRepoPG{pool: pool}
}

func (r *codeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const codeColumns = `id, organization_id, code, code_system, description, unit_price_cents, active,
	created_at, updated_at`

func scanCode(row pgx.Row) (*BillingCode, error) {
	var c BillingCode
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.Code, &c.CodeSystem, &c.Description, &c.UnitPriceCents, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *codeRepoPG) Create(ctx context.Context, c *BillingCode) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO billing_code (id, organization_id, code, code_system, description, unit_price_cents, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		c.ID, c.OrganizationID, c.Code, c.CodeSystem, c.Description, c.UnitPriceCents, c.Active,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.Classify(err, EntityBillingCode)
}

func (r *codeRepoPG) Get(ctx context.Context, id uuid.UUID) (*BillingCode, error) {
	c, err := query.Get(ctx, r.conn(ctx), "billing_code", codeColumns, id, false, scanCode)
	return c, db.Classify(err, EntityBillingCode)
}

func (r *codeRepoPG) Update(ctx context.Context, c *BillingCode) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE billing_code SET
			code = $2, code_system = $3, description = $4, unit_price_cents = $5,
			active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Code, c.CodeSystem, c.Description, c.UnitPriceCents, c.Active,
	).Scan(&c.UpdatedAt)
	return db.Classify(err, EntityBillingCode)
}

// Delete removes the row. A billing item still pointing at it fails with a
// foreign key violation, which Classify reports as a conflict.
func (r *codeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.HardDelete(ctx, r.conn(ctx), "billing_code", id)
	if err != nil {
		return db.Classify(err, EntityBillingCode)
	}
	return db.RequireAffected(tag, EntityBillingCode)
}

func (r *codeRepoPG) List(ctx context.Context, f BillingCodeFilter, p pagination.Params) ([]*BillingCode, int, error) {
	b := query.New()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "code", f.Code)
	query.Eq(b, "code_system", f.CodeSystem)
	query.Eq(b, "active", f.Active)
	b.Contains("description", f.Description, true)
	query.Range(b, "unit_price_cents", f.PriceMin, f.PriceMax)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "billing_code",
		Columns: codeColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanCode)
}

func (r *codeRepoPG) CodeExists(ctx context.Context, orgID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "billing_code",
		query.New().Where("organization_id = ?", orgID).Where("code = ?", code).Where("id <> ?", excludeID))
}

// -- Billing Item Repository --

type itemRepoPG struct {
	pool *pgxpool.Pool
}

func NewBillingItemRepo(pool *pgxpool.Pool) BillingItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const itemColumns = `id, organization_id, billing_code_id, patient_id, appointment_id,
	quantity, unit_price_cents, service_date, note, created_at, updated_at`

func scanItem(row pgx.Row) (*BillingItem, error) {
	var i BillingItem
	err := row.Scan(
		&i.ID, &i.OrganizationID, &i.BillingCodeID, &i.PatientID, &i.AppointmentID,
		&i.Quantity, &i.UnitPriceCents, &i.ServiceDate, &i.Note, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *itemRepoPG) Create(ctx context.Context, i *BillingItem) error {
	i.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO billing_item (id, organization_id, billing_code_id, patient_id, appointment_id,
			quantity, unit_price_cents, service_date, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		i.ID, i.OrganizationID, i.BillingCodeID, i.PatientID, i.AppointmentID,
		i.Quantity, i.UnitPriceCents, i.ServiceDate, i.Note,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
	return db.Classify(err, EntityBillingItem)
}

func (r *itemRepoPG) Get(ctx context.Context, id uuid.UUID) (*BillingItem, error) {
	i, err := query.Get(ctx, r.conn(ctx), "billing_item", itemColumns, id, false, scanItem)
	return i, db.Classify(err, EntityBillingItem)
}

func (r *itemRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.HardDelete(ctx, r.conn(ctx), "billing_item", id)
	if err != nil {
		return db.Classify(err, EntityBillingItem)
	}
	return db.RequireAffected(tag, EntityBillingItem)
}

func (r *itemRepoPG) List(ctx context.Context, f BillingItemFilter, p pagination.Params) ([]*BillingItem, int, error) {
	b := query.New()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "billing_code_id", f.BillingCodeID)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "appointment_id", f.AppointmentID)
	query.Range(b, "service_date", f.ServiceFrom, f.ServiceTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "billing_item",
		Columns: itemColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanItem)
}

func (r *itemRepoPG) CountForCode(ctx context.Context, codeID uuid.UUID) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM billing_item WHERE billing_code_id = $1`, codeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count billing items: %w", err)
	}
	return n, nil
}

func (r *itemRepoPG) PatientInOrganization(ctx context.Context, orgID, patientID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "patient",
		query.New().ActiveOnly().Where("id = ?", patientID).Where("organization_id = ?", orgID))
}
