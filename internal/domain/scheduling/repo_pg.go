package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const appointmentColumns = `id, organization_id, patient_id, department_id, practitioner_id,
	status, start_time, end_time, reason, cancel_reason, cancelled_at,
	created_at, updated_at, deleted_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.PatientID, &a.DepartmentID, &a.PractitionerID,
		&a.Status, &a.StartTime, &a.EndTime, &a.Reason, &a.CancelReason, &a.CancelledAt,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, organization_id, patient_id, department_id, practitioner_id,
			status, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		a.ID, a.OrganizationID, a.PatientID, a.DepartmentID, a.PractitionerID,
		a.Status, a.StartTime, a.EndTime, a.Reason,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err, EntityAppointment)
}

func (r *appointmentRepoPG) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := query.Get(ctx, r.conn(ctx), "appointment", appointmentColumns, id, true, scanAppointment)
	return a, db.Classify(err, EntityAppointment)
}

func (r *appointmentRepoPG) GetAny(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := query.Get(ctx, r.conn(ctx), "appointment", appointmentColumns, id, false, scanAppointment)
	return a, db.Classify(err, EntityAppointment)
}

// Update writes every mutable column, cancellation fields included.
func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET
			department_id = $2, practitioner_id = $3, status = $4,
			start_time = $5, end_time = $6, reason = $7,
			cancel_reason = $8, cancelled_at = $9, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		a.ID, a.DepartmentID, a.PractitionerID, a.Status,
		a.StartTime, a.EndTime, a.Reason,
		a.CancelReason, a.CancelledAt,
	).Scan(&a.UpdatedAt)
	return db.Classify(err, EntityAppointment)
}

func (r *appointmentRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.SoftDelete(ctx, r.conn(ctx), "appointment", id)
	if err != nil {
		return db.Classify(err, EntityAppointment)
	}
	return db.RequireAffected(tag, EntityAppointment)
}

func (r *appointmentRepoPG) List(ctx context.Context, f AppointmentFilter, p pagination.Params) ([]*Appointment, int, error) {
	b := query.New().ActiveOnly()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "department_id", f.DepartmentID)
	query.Eq(b, "practitioner_id", f.PractitionerID)
	query.Eq(b, "status", f.Status)
	query.Range(b, "start_time", f.StartFrom, f.StartTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "appointment",
		Columns: appointmentColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanAppointment)
}

func (r *appointmentRepoPG) PatientInOrganization(ctx context.Context, orgID, patientID uuid.UUID) (bool, error) {
	return query.Exists(ctx, r.conn(ctx), "patient",
		query.New().ActiveOnly().Where("id = ?", patientID).Where("organization_id = ?", orgID))
}
