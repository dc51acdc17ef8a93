package access

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

// -- Role Repository --

type roleRepoPG struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) RoleRepository {
	return &roleRepoPG{pool: pool}
}

func (r *roleRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const roleColumns = `id, organization_id, name, description, permissions, created_at, updated_at, deleted_at`

func scanRole(row pgx.Row) (*Role, error) {
	var r Role
	err := row.Scan(
		&r.ID, &r.OrganizationID, &r.Name, &r.Description, &r.Permissions,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *roleRepoPG) Create(ctx context.Context, role *Role) error {
	role.ID = uuid.New()
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO role (id, organization_id, name, description, permissions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		role.ID, role.OrganizationID, role.Name, role.Description, role.Permissions,
	).Scan(&role.CreatedAt, &role.UpdatedAt)
	return db.Classify(err, EntityRole)
}

func (r *roleRepoPG) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	role, err := query.Get(ctx, r.conn(ctx), "role", roleColumns, id, true, scanRole)
	return role, db.Classify(err, EntityRole)
}

func (r *roleRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*Role, error) {
	role, err := query.Get(ctx, r.conn(ctx), "role", roleColumns, id, false, scanRole)
	return role, db.Classify(err, EntityRole)
}

func (r *roleRepoPG) Update(ctx context.Context, role *Role) error {
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE role SET name = $2, description = $3, permissions = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		role.ID, role.Name, role.Description, role.Permissions,
	).Scan(&role.UpdatedAt)
	return db.Classify(err, EntityRole)
}

func (r *roleRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "role", id)
	if err != nil {
		return db.Classify(err, EntityRole)
	}
	return db.RequireAffected(tag, EntityRole)
}

func (r *roleRepoPG) List(ctx context.Context, f RoleFilter, p pagination.Params) ([]*Role, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	b.Contains("name", f.Name, true)
	if f.Permission != nil {
		b.Where("? = ANY(permissions)", *f.Permission)
	}
	query.Range(b, "created_at", f.CreatedFrom, f.CreatedTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "role",
		Columns: roleColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanRole)
}

func (r *roleRepoPG) NameExists(ctx context.Context, orgID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "role",
		query.New().Where("organization_id = ?", orgID).Where("name = ?", name).Where("id <> ?", excludeID))
}

// -- Role Assignment Repository --

type assignmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewRoleAssignmentRepo(pool *pgxpool.Pool) RoleAssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const assignmentColumns = `id, role_id, user_id, organization_id, assigned_by, created_at, updated_at`

func scanAssignment(row pgx.Row) (*RoleAssignment, error) {
	var a RoleAssignment
	err := row.Scan(&a.ID, &a.RoleID, &a.UserID, &a.OrganizationID, &a.AssignedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *RoleAssignment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO role_assignment (id, role_id, user_id, organization_id, assigned_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		a.ID, a.RoleID, a.UserID, a.OrganizationID, a.AssignedBy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err, EntityRoleAssignment)
}

func (r *assignmentRepoPG) Get(ctx context.Context, id uuid.UUID) (*RoleAssignment, error) {
	a, err := query.Get(ctx, r.conn(ctx), "role_assignment", assignmentColumns, id, false, scanAssignment)
	return a, db.Classify(err, EntityRoleAssignment)
}

func (r *assignmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.HardDelete(ctx, r.conn(ctx), "role_assignment", id)
	if err != nil {
		return db.Classify(err, EntityRoleAssignment)
	}
	return db.RequireAffected(tag, EntityRoleAssignment)
}

func (r *assignmentRepoPG) List(ctx context.Context, f RoleAssignmentFilter, p pagination.Params) ([]*RoleAssignment, int, error) {
	b := query.New()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "role_id", f.RoleID)
	query.Eq(b, "user_id", f.UserID)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "role_assignment",
		Columns: assignmentColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanAssignment)
}

func (r *assignmentRepoPG) Exists(ctx context.Context, roleID, userID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "role_assignment",
		query.New().Where("role_id = ?", roleID).Where("user_id = ?", userID))
}

func (r *assignmentRepoPG) CountForRole(ctx context.Context, roleID uuid.UUID) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM role_assignment WHERE role_id = $1`, roleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count role assignments: %w", err)
	}
	return n, nil
}

// -- MFA Factor Repository --

type factorRepoPG struct {
	pool *pgxpool.Pool
}

func NewMFAFactorRepo(pool *pgxpool.Pool) MFAFactorRepository {
	return &factorRepoPG{pool: pool}
}

func (r *factorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const factorColumns = `id, user_id, organization_id, factor_type, label, secret_hash,
	verified_at, last_used_at, created_at, updated_at`

func scanFactor(row pgx.Row) (*MFAFactor, error) {
	var f MFAFactor
	err := row.Scan(
		&f.ID, &f.UserID, &f.OrganizationID, &f.FactorType, &f.Label, &f.SecretHash,
		&f.VerifiedAt, &f.LastUsedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *factorRepoPG) Create(ctx context.Context, f *MFAFactor) error {
	f.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO mfa_factor (id, user_id, organization_id, factor_type, label, secret_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		f.ID, f.UserID, f.OrganizationID, f.FactorType, f.Label, f.SecretHash,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return db.Classify(err, EntityMFAFactor)
}

func (r *factorRepoPG) Get(ctx context.Context, id uuid.UUID) (*MFAFactor, error) {
	f, err := query.Get(ctx, r.conn(ctx), "mfa_factor", factorColumns, id, false, scanFactor)
	return f, db.Classify(err, EntityMFAFactor)
}

func (r *factorRepoPG) Update(ctx context.Context, f *MFAFactor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE mfa_factor SET label = $2, verified_at = $3, last_used_at = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		f.ID, f.Label, f.VerifiedAt, f.LastUsedAt,
	).Scan(&f.UpdatedAt)
	return db.Classify(err, EntityMFAFactor)
}

func (r *factorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.HardDelete(ctx, r.conn(ctx), "mfa_factor", id)
	if err != nil {
		return db.Classify(err, EntityMFAFactor)
	}
	return db.RequireAffected(tag, EntityMFAFactor)
}

func (r *factorRepoPG) List(ctx context.Context, f MFAFactorFilter, p pagination.Params) ([]*MFAFactor, int, error) {
	b := query.New()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "user_id", f.UserID)
	query.Eq(b, "factor_type", f.FactorType)
	if f.Verified != nil {
		if *f.Verified {
			b.Where("verified_at IS NOT NULL")
		} else {
			b.Where("verified_at IS NULL")
		}
	}

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "mfa_factor",
		Columns: factorColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanFactor)
}

func (r *factorRepoPG) Exists(ctx context.Context, userID uuid.UUID, factorType, label string) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "mfa_factor",
		query.New().Where("user_id = ?", userID).Where("factor_type = ?", factorType).Where("label = ?", label))
}
