package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

type notificationRepoPG struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepoPG{pool: pool}
}

func (r *notificationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const notificationColumns = `id, organization_id, user_id, category, title, body, read_at,
	created_at, updated_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.OrganizationID, &n.UserID, &n.Category, &n.Title, &n.Body, &n.ReadAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notification (id, organization_id, user_id, category, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		n.ID, n.OrganizationID, n.UserID, n.Category, n.Title, n.Body,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	return db.Classify(err, EntityNotification)
}

func (r *notificationRepoPG) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n, err := query.Get(ctx, r.conn(ctx), "notification", notificationColumns, id, false, scanNotification)
	return n, db.Classify(err, EntityNotification)
}

func (r *notificationRepoPG) Update(ctx context.Context, n *Notification) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE notification SET
			category = $2, title = $3, body = $4, read_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		n.ID, n.Category, n.Title, n.Body, n.ReadAt,
	).Scan(&n.UpdatedAt)
	return db.Classify(err, EntityNotification)
}

func (r *notificationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := query.HardDelete(ctx, r.conn(ctx), "notification", id)
	if err != nil {
		return db.Classify(err, EntityNotification)
	}
	return db.RequireAffected(tag, EntityNotification)
}

func (r *notificationRepoPG) List(ctx context.Context, f NotificationFilter, p pagination.Params) ([]*Notification, int, error) {
	b := query.New()
	query.Eq(b, "organization_id", f.OrganizationID)
	query.Eq(b, "user_id", f.UserID)
	query.Eq(b, "category", f.Category)
	if f.Unread != nil {
		if *f.Unread {
			b.Where("read_at IS NULL")
		} else {
			b.Where("read_at IS NOT NULL")
		}
	}
	query.Range(b, "created_at", f.CreatedFrom, f.CreatedTo)

	return query.Run(ctx, r.conn(ctx), query.Select{
		Table:   "notification",
		Columns: notificationColumns,
		Where:   b,
		Order:   f.Order,
		Page:    p,
	}, scanNotification)
}
