package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/platform/db"
)

// PGSink inserts into audit_log through the transaction carried by ctx. The
// row's created_at is NOW(), the same transaction timestamp the mutation used
// for updated_at.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) Record(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	var eventContext []byte
	if len(e.Context) > 0 {
		b, err := json.Marshal(e.Context)
		if err != nil {
			return fmt.Errorf("marshal audit context: %w", err)
		}
		eventContext = b
	}

	_, err := db.Conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO audit_log (
			id, user_id, organization_id, action_type,
			related_entity_type, related_entity_id, event_context, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		e.ID, e.UserID, e.OrganizationID, string(e.Action),
		e.EntityType, e.EntityID, eventContext,
	)
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}
