package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// PatientFilter narrows a patient list. Name matches either first or last name.
type PatientFilter struct {
	OrganizationID *uuid.UUID
	MRN            *string
	Name           *string
	Gender         *string
	Active         *bool
	BornFrom       *time.Time
	BornTo         *time.Time
	Order          query.Order
}

var patientSort = query.SortSpec{
	Allowed: map[string]string{
		"last_name":  "last_name",
		"first_name": "first_name",
		"birth_date": "birth_date",
		"mrn":        "mrn",
		"created_at": "created_at",
	},
	Default: "created_at",
}

// PatientRepository defines the persistence interface for patients.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetAny(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f PatientFilter, p pagination.Params) ([]*Patient, int, error)
	MRNExists(ctx context.Context, orgID uuid.UUID, mrn string, excludeID uuid.UUID) (bool, error)
	// BlockingDependency names the first active record that prevents the
	// patient from being deleted, or returns "" when there is none.
	BlockingDependency(ctx context.Context, id uuid.UUID) (string, error)
}
