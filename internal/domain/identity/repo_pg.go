package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientColumns = `id, organization_id, mrn, first_name, last_name, birth_date, gender,
	phone, email, active, created_at, updated_at, deleted_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.MRN, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender,
		&p.Phone, &p.Email, &p.Active, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (
			id, organization_id, mrn, first_name, last_name, birth_date, gender,
			phone, email, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		p.ID, p.OrganizationID, p.MRN, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.Phone, p.Email, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, EntityPatient)
}

func (r *patientRepoPG) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := query.Get(ctx, r.conn(ctx), "patient", patientColumns, id, true, scanPatient)
	return p, db.Classify(err, EntityPatient)
}

func (r *patientRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := query.Get(ctx, r.conn(ctx), "patient", patientColumns, id, false, scanPatient)
	return p, db.Classify(err, EntityPatient)
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			mrn = $2, first_name = $3, last_name = $4, birth_date = $5, gender = $6,
			phone = $7, email = $8, active = $9, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.Phone, p.Email, p.Active,
	).Scan(&p.UpdatedAt)
	return db.Classify(err, EntityPatient)
}

func (r *patientRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "patient", id)
	if err != nil {
		return db.Classify(err, EntityPatient)
	}
	return db.RequireAffected(tag, EntityPatient)
}

func (r *patientRepoPG) List(ctx context.Context, f PatientFilter, p pagination.Params) ([]*Patient, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "mrn", f.MRN)
	query.Eq(b, "gender", f.Gender)
	query.Eq(b, "active", f.Active)
	query.Range(b, "birth_date", f.BornFrom, f.BornTo)
	if f.Name != nil && *f.Name != "" {
		pattern := "%" + query.EscapeLike(*f.Name) + "%"
		b.Where("(first_name ILIKE ? OR last_name ILIKE ?)", pattern, pattern)
	}

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "patient",
		Columns: patientColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanPatient)
}

func (r *patientRepoPG) MRNExists(ctx context.Context, orgID uuid.UUID, mrn string, excludeID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "patient", query.New().
		Where("organization_id = ?", orgID).
		Where("mrn = ?", mrn).
		Where("id <> ?", excludeID))
}

// BlockingDependency checks open legal holds before upcoming appointments.
func (r *patientRepoPG) BlockingDependency(ctx context.Context, id uuid.UUID) (string, error) {
	held, err := query.Exists(ctx, r.conn(ctx), "legal_hold", query.New().ActiveOnly().
		Where("patient_id = ?", id).
		Where("status = ?", "active"))
	if err != nil {
		return "", err
	}
	if held {
		return "active legal hold", nil
	}
	booked, err := query.Exists(ctx, r.conn(ctx), "appointment", query.New().ActiveOnly().
		Where("patient_id = ?", id).
		Where("status IN ('scheduled', 'confirmed')").
		Where("start_time > NOW()"))
	if err != nil {
		return "", err
	}
	if booked {
		return "upcoming appointment", nil
	}
	return "", nil
}
