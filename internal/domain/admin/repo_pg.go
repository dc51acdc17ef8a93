package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// -- Organization Repository --

type orgRepoPG struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) OrganizationRepository {
	return &orgRepoPG{pool: pool}
}

func (r *orgRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const orgColumns = `id, name, code, status, type_code, contact_email, phone,
	created_at, updated_at, deleted_at`

func scanOrganization(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(
		&o.ID, &o.Name, &o.Code, &o.Status, &o.TypeCode, &o.ContactEmail, &o.Phone,
		&o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orgRepoPG) Create(ctx context.Context, org *Organization) error {
	org.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO organization (id, name, code, status, type_code, contact_email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		org.ID, org.Name, org.Code, org.Status, org.TypeCode, org.ContactEmail, org.Phone,
	).Scan(&org.CreatedAt, &org.UpdatedAt)
	return db.Classify(err, EntityOrganization)
}

func (r *orgRepoPG) Get(ctx context.Context, id uuid.UUID) (*Organization, error) {
	o, err := query.Get(ctx, r.conn(ctx), "organization", orgColumns, id, true, scanOrganization)
	return o, db.Classify(err, EntityOrganization)
}

func (r *orgRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*Organization, error) {
	o, err := query.Get(ctx, r.conn(ctx), "organization", orgColumns, id, false, scanOrganization)
	return o, db.Classify(err, EntityOrganization)
}

func (r *orgRepoPG) Update(ctx context.Context, org *Organization) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE organization SET
			name = $2, code = $3, status = $4, type_code = $5,
			contact_email = $6, phone = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		org.ID, org.Name, org.Code, org.Status, org.TypeCode, org.ContactEmail, org.Phone,
	).Scan(&org.UpdatedAt)
	return db.Classify(err, EntityOrganization)
}

func (r *orgRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "organization", id)
	if err != nil {
		return db.Classify(err, EntityOrganization)
	}
	return db.RequireAffected(tag, EntityOrganization)
}

func (r *orgRepoPG) List(ctx context.Context, f OrganizationFilter, p pagination.Params) ([]*Organization, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "id", f.ID)
	query.Eq(b, "code", f.Code)
	query.Eq(b, "status", f.Status)
	query.Eq(b, "type_code", f.TypeCode)
	b.Contains("name", f.Name, true)
	query.Range(b, "created_at", f.CreatedFrom, f.CreatedTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "organization",
		Columns: orgColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanOrganization)
}

// CodeExists checks deleted rows too: the unique index on code is not partial.
func (r *orgRepoPG) CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "organization",
		query.New().Where("code = ?", code).Where("id <> ?", excludeID))
}

// -- Department Repository --

type deptRepoPG struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepo(pool *pgxpool.Pool) DepartmentRepository {
	return &deptRepoPG{pool: pool}
}

func (r *deptRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const deptColumns = `id, organization_id, name, code, description, manager_id, active,
	created_at, updated_at, deleted_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.Name, &d.Code, &d.Description, &d.ManagerID, &d.Active,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deptRepoPG) Create(ctx context.Context, dept *Department) error {
	dept.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO department (id, organization_id, name, code, description, manager_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		dept.ID, dept.OrganizationID, dept.Name, dept.Code, dept.Description, dept.ManagerID, dept.Active,
	).Scan(&dept.CreatedAt, &dept.UpdatedAt)
	return db.Classify(err, EntityDepartment)
}

func (r *deptRepoPG) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := query.Get(ctx, r.conn(ctx), "department", deptColumns, id, true, scanDepartment)
	return d, db.Classify(err, EntityDepartment)
}

func (r *deptRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := query.Get(ctx, r.conn(ctx), "department", deptColumns, id, false, scanDepartment)
	return d, db.Classify(err, EntityDepartment)
}

func (r *deptRepoPG) Update(ctx context.Context, dept *Department) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE department SET
			name = $2, code = $3, description = $4, manager_id = $5, active = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		dept.ID, dept.Name, dept.Code, dept.Description, dept.ManagerID, dept.Active,
	).Scan(&dept.UpdatedAt)
	return db.Classify(err, EntityDepartment)
}

func (r *deptRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "department", id)
	if err != nil {
		return db.Classify(err, EntityDepartment)
	}
	return db.RequireAffected(tag, EntityDepartment)
}

func (r *deptRepoPG) List(ctx context.Context, f DepartmentFilter, p pagination.Params) ([]*Department, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "code", f.Code)
	query.Eq(b, "manager_id", f.ManagerID)
	query.Eq(b, "active", f.Active)
	b.Contains("name", f.Name, true)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "department",
		Columns: deptColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanDepartment)
}

func (r *deptRepoPG) CodeExists(ctx context.Context, orgID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "department", query.New().
		Where("organization_id = ?", orgID).
		Where("code = ?", code).
		Where("id <> ?", excludeID))
}

func (r *deptRepoPG) HasActive(ctx context.Context, orgID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "department",
		query.New().ActiveOnly().Where("organization_id = ?", orgID))
}

// -- Locale Setting Repository --

type localeRepoPG struct {
	pool *pgxpool.Pool
}

func NewLocaleSettingRepo(pool *pgxpool.Pool) LocaleSettingRepository {
	return &localeRepoPG{pool: pool}
}

func (r *localeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const localeColumns = `id, organization_id, department_id, language, timezone, date_format, currency,
	created_at, updated_at, deleted_at`

func scanLocaleSetting(row pgx.Row) (*LocaleSetting, error) {
	var l LocaleSetting
	err := row.Scan(
		&l.ID, &l.OrganizationID, &l.DepartmentID, &l.Language, &l.Timezone, &l.DateFormat, &l.Currency,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *localeRepoPG) Create(ctx context.Context, l *LocaleSetting) error {
	l.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO locale_setting (id, organization_id, department_id, language, timezone, date_format, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		l.ID, l.OrganizationID, l.DepartmentID, l.Language, l.Timezone, l.DateFormat, l.Currency,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	return db.Classify(err, EntityLocaleSetting)
}

func (r *localeRepoPG) Get(ctx context.Context, id uuid.UUID) (*LocaleSetting, error) {
	l, err := query.Get(ctx, r.conn(ctx), "locale_setting", localeColumns, id, true, scanLocaleSetting)
	return l, db.Classify(err, EntityLocaleSetting)
}

func (r *localeRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*LocaleSetting, error) {
	l, err := query.Get(ctx, r.conn(ctx), "locale_setting", localeColumns, id, false, scanLocaleSetting)
	return l, db.Classify(err, EntityLocaleSetting)
}

func (r *localeRepoPG) Update(ctx context.Context, l *LocaleSetting) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE locale_setting SET
			language = $2, timezone = $3, date_format = $4, currency = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		l.ID, l.Language, l.Timezone, l.DateFormat, l.Currency,
	).Scan(&l.UpdatedAt)
	return db.Classify(err, EntityLocaleSetting)
}

func (r *localeRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "locale_setting", id)
	if err != nil {
		return db.Classify(err, EntityLocaleSetting)
	}
	return db.RequireAffected(tag, EntityLocaleSetting)
}

func (r *localeRepoPG) List(ctx context.Context, f LocaleSettingFilter, p pagination.Params) ([]*LocaleSetting, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "department_id", f.DepartmentID)
	query.Eq(b, "language", f.Language)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "locale_setting",
		Columns: localeColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanLocaleSetting)
}

// ActiveExists matches a nil department against the organization default row.
func (r *localeRepoPG) ActiveExists(ctx context.Context, orgID uuid.UUID, deptID *uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "locale_setting", query.New().ActiveOnly().
		Where("organization_id = ?", orgID).
		Where("department_id IS NOT DISTINCT FROM ?", deptID))
}

func (r *localeRepoPG) HasActiveForDepartment(ctx context.Context, deptID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "locale_setting",
		query.New().ActiveOnly().Where("department_id = ?", deptID))
}
