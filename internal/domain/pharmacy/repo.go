package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

type PharmacyIntegrationFilter struct {
	OrganizationID *uuid.UUID
	Vendor         *string
	Status         *string
	Name           *string
	SyncedFrom     *time.Time
	SyncedTo       *time.Time
	Order          query.Order
}

var pharmacyIntegrationSort = query.SortSpec{
	Allowed: map[string]string{
		"name":         "name",
		"vendor":       "vendor",
		"status":       "status",
		"last_sync_at": "last_sync_at",
		"created_at":   "created_at",
	},
	Default: "created_at",
}

type PharmacyIntegrationRepository interface {
	Create(ctx context.Context, p *PharmacyIntegration) error
	Get(ctx context.Context, id uuid.UUID) (*PharmacyIntegration, error)
	GetAny(ctx context.Context, id uuid.UUID) (*PharmacyIntegration, error)
	Update(ctx context.Context, p *PharmacyIntegration) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f PharmacyIntegrationFilter, p pagination.Params) ([]*PharmacyIntegration, int, error)
	// ActiveExists checks non-deleted integrations other than excludeID.
	ActiveExists(ctx context.Context, orgID uuid.UUID, vendor string, excludeID uuid.UUID) (bool, error)
}
