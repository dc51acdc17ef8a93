package compliance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// -- Legal Hold Repository --

type holdRepoPG struct {
	pool *pgxpool.Pool
}

func NewLegalHoldRepo(pool *pgxpool.Pool) LegalHoldRepository {
	return &holdRepoPG{pool: pool}
}

func (r *holdRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const holdColumns = `id, organization_id, patient_id, matter_name, reason, status,
	placed_by, released_by, released_at, created_at, updated_at, deleted_at`

func scanHold(row pgx.Row) (*LegalHold, error) {
	var h LegalHold
	err := row.Scan(
		&h.ID, &h.OrganizationID, &h.PatientID, &h.MatterName, &h.Reason, &h.Status,
		&h.PlacedBy, &h.ReleasedBy, &h.ReleasedAt, &h.CreatedAt, &h.UpdatedAt, &h.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *holdRepoPG) Create(ctx context.Context, h *LegalHold) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO legal_hold (id, organization_id, patient_id, matter_name, reason, status, placed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		h.ID, h.OrganizationID, h.PatientID, h.MatterName, h.Reason, h.Status, h.PlacedBy,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	return db.Classify(err, EntityLegalHold)
}

func (r *holdRepoPG) Get(ctx context.Context, id uuid.UUID) (*LegalHold, error) {
	h, err := query.Get(ctx, r.conn(ctx), "legal_hold", holdColumns, id, true, scanHold)
	return h, db.Classify(err, EntityLegalHold)
}

func (r *holdRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*LegalHold, error) {
	h, err := query.Get(ctx, r.conn(ctx), "legal_hold", holdColumns, id, false, scanHold)
	return h, db.Classify(err, EntityLegalHold)
}

func (r *holdRepoPG) Update(ctx context.Context, h *LegalHold) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE legal_hold SET
			matter_name = $2, reason = $3, status = $4,
			released_by = $5, released_at = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		h.ID, h.MatterName, h.Reason, h.Status, h.ReleasedBy, h.ReleasedAt,
	).Scan(&h.UpdatedAt)
	return db.Classify(err, EntityLegalHold)
}

func (r *holdRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "legal_hold", id)
	if err != nil {
		return db.Classify(err, EntityLegalHold)
	}
	return db.RequireAffected(tag, EntityLegalHold)
}

func (r *holdRepoPG) List(ctx context.Context, f LegalHoldFilter, p pagination.Params) ([]*LegalHold, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "status", f.Status)
	b.Contains("matter_name", f.MatterName, true)
	query.Range(b, "created_at", f.CreatedFrom, f.CreatedTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "legal_hold",
		Columns: holdColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanHold)
}

func (r *holdRepoPG) PatientInOrganization(ctx context.Context, orgID, patientID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "patient",
		query.New().ActiveOnly().Where("id = ?", patientID).Where("organization_id = ?", orgID))
}

// -- Compliance Review Repository --

type reviewRepoPG struct {
	pool *pgxpool.Pool
}

func NewComplianceReviewRepo(pool *pgxpool.Pool) ComplianceReviewRepository {
	return &reviewRepoPG{pool: pool}
}

func (r *reviewRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const reviewColumns = `id, organization_id, legal_hold_id, review_type, status, reviewer_id,
	findings, due_date, finalized_at, created_at, updated_at, deleted_at`

func scanReview(row pgx.Row) (*ComplianceReview, error) {
	var c ComplianceReview
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.LegalHoldID, &c.ReviewType, &c.Status, &c.ReviewerID,
		&c.Findings, &c.DueDate, &c.FinalizedAt, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *reviewRepoPG) Create(ctx context.Context, c *ComplianceReview) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO compliance_review (id, organization_id, legal_hold_id, review_type, status,
			reviewer_id, findings, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		c.ID, c.OrganizationID, c.LegalHoldID, c.ReviewType, c.Status,
		c.ReviewerID, c.Findings, c.DueDate,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.Classify(err, EntityComplianceReview)
}

func (r *reviewRepoPG) Get(ctx context.Context, id uuid.UUID) (*ComplianceReview, error) {
	c, err := query.Get(ctx, r.conn(ctx), "compliance_review", reviewColumns, id, true, scanReview)
	return c, db.Classify(err, EntityComplianceReview)
}

func (r *reviewRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*ComplianceReview, error) {
	c, err := query.Get(ctx, r.conn(ctx), "compliance_review", reviewColumns, id, false, scanReview)
	return c, db.Classify(err, EntityComplianceReview)
}

// Update refuses to touch a row that is already finalized, so a concurrent
// finalize wins.
func (r *reviewRepoPG) Update(ctx context.Context, c *ComplianceReview) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE compliance_review SET
			status = $2, reviewer_id = $3, findings = $4, due_date = $5,
			finalized_at = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status <> 'finalized'
		RETURNING updated_at`,
		c.ID, c.Status, c.ReviewerID, c.Findings, c.DueDate, c.FinalizedAt,
	).Scan(&c.UpdatedAt)
	return db.Classify(err, EntityComplianceReview)
}

func (r *reviewRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "compliance_review", id)
	if err != nil {
		return db.Classify(err, EntityComplianceReview)
	}
	return db.RequireAffected(tag, EntityComplianceReview)
}

func (r *reviewRepoPG) List(ctx context.Context, f ComplianceReviewFilter, p pagination.Params) ([]*ComplianceReview, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "legal_hold_id", f.LegalHoldID)
	query.Eq(b, "reviewer_id", f.ReviewerID)
	query.Eq(b, "review_type", f.ReviewType)
	query.Eq(b, "status", f.Status)
	query.Range(b, "due_date", f.DueFrom, f.DueTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "compliance_review",
		Columns: reviewColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanReview)
}

func (r *reviewRepoPG) CountOpenForHold(ctx context.Context, holdID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM compliance_review
		WHERE legal_hold_id = $1 AND deleted_at IS NULL AND status <> 'finalized'`, holdID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open reviews: %w", err)
	}
	return n, nil
}

// -- Audit Log Repository --

type auditLogRepoPG struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepo(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepoPG{pool: pool}
}

const auditLogColumns = `id, user_id, organization_id, action_type, related_entity_type,
	related_entity_id, event_context, created_at`

func scanAuditLog(row pgx.Row) (*audit.Event, error) {
	var (
		e      audit.Event
		action string
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.OrganizationID, &action, &e.EntityType,
		&e.EntityID, &e.Context, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Action = audit.Action(action)
	return &e, nil
}

func (r *auditLogRepoPG) List(ctx context.Context, f AuditLogFilter, p pagination.Params) ([]*audit.Event, int, error) {
	b := query.New()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "user_id", f.UserID)
	query.Eq(b, "action_type", f.ActionType)
	query.Eq(b, "related_entity_type", f.EntityType)
	query.Eq(b, "related_entity_id", f.EntityID)
	query.Range(b, "created_at", f.CreatedFrom, f.CreatedTo)

	return query.Run(ctx, db.Conn(ctx, r.pool), query.Select{
		Table:   "audit_log",
		Columns: auditLogColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanAuditLog)
}
