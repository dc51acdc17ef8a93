package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// BillingCodeFilter narrows a code list. PriceMin and PriceMax bound
// unit_price_cents inclusively.
type BillingCodeFilter struct {
	OrganizationID *uuid.UUID
	Code           *string
	CodeSystem     *string
	Description    *string
	Active         *bool
	PriceMin       *int64
	PriceMax       *int64
	Order          query.Order
}

var billingCodeSort = query.SortSpec{
	Allowed: map[string]string{
		"code":       "code",
		"price":      "unit_price_cents",
		"created_at": "created_at",
	},
	Default: "created_at",
}

type BillingItemFilter struct {
	OrganizationID *uuid.UUID
	BillingCodeID  *uuid.UUID
	PatientID      *uuid.UUID
	AppointmentID  *uuid.UUID
	ServiceFrom    *time.Time
	ServiceTo      *time.Time
	Order          query.Order
}

var billingItemSort = query.SortSpec{
	Allowed: map[string]string{
		"service_date": "service_date",
		"quantity":     "quantity",
		"created_at":   "created_at",
	},
	Default: "service_date",
}

type BillingCodeRepository interface {
	Create(ctx context.Context, c *BillingCode) error
	Get(ctx context.Context, id uuid.UUID) (*BillingCode, error)
	Update(ctx context.Context, c *BillingCode) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f BillingCodeFilter, p pagination.Params) ([]*BillingCode, int, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string, excludeID uuid.UUID) (bool, error)
}

type BillingItemRepository interface {
	Create(ctx context.Context, i *BillingItem) error
	Get(ctx context.Context, id uuid.UUID) (*BillingItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f BillingItemFilter, p pagination.Params) ([]*BillingItem, int, error)
	CountForCode(ctx context.Context, codeID uuid.UUID) (int, error)
	PatientInOrganization(ctx context.Context, orgID, patientID uuid.UUID) (bool, error)
}
