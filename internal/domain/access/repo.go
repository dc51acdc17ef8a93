package access

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// RoleFilter narrows a role list. Permission matches roles that grant exactly
// that permission string.
type RoleFilter struct {
	OrganizationID *uuid.UUID
	Name           *string
	Permission     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Order          query.Order
}

var roleSort = query.SortSpec{
	Allowed: map[string]string{
		"name":       "name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	Default: "created_at",
}

type RoleAssignmentFilter struct {
	OrganizationID *uuid.UUID
	RoleID         *uuid.UUID
	UserID         *uuid.UUID
	Order          query.Order
}

var roleAssignmentSort = query.SortSpec{
	Allowed: map[string]string{
		"created_at": "created_at",
	},
	Default: "created_at",
}

type MFAFactorFilter struct {
	OrganizationID *uuid.UUID
	UserID         *uuid.UUID
	FactorType     *string
	Verified       *bool
	Order          query.Order
}

var mfaFactorSort = query.SortSpec{
	Allowed: map[string]string{
		"created_at":   "created_at",
		"verified_at":  "verified_at",
		"last_used_at": "last_used_at",
		"label":        "label",
	},
	Default: "created_at",
}

type RoleRepository interface {
	Create(ctx context.Context, r *Role) error
	Get(ctx context.Context, id uuid.UUID) (*Role, error)
	GetAny(ctx context.Context, id uuid.UUID) (*Role, error)
	Update(ctx context.Context, r *Role) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RoleFilter, p pagination.Params) ([]*Role, int, error)
	// NameExists checks every role of the organization, deleted ones
	// included, other than excludeID.
	NameExists(ctx context.Context, orgID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
}

type RoleAssignmentRepository interface {
	Create(ctx context.Context, a *RoleAssignment) error
	Get(ctx context.Context, id uuid.UUID) (*RoleAssignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RoleAssignmentFilter, p pagination.Params) ([]*RoleAssignment, int, error)
	Exists(ctx context.Context, roleID, userID uuid.UUID) (bool, error)
	CountForRole(ctx context.Context, roleID uuid.UUID) (int, error)
}

type MFAFactorRepository interface {
	Create(ctx context.Context, f *MFAFactor) error
	Get(ctx context.Context, id uuid.UUID) (*MFAFactor, error)
	Update(ctx context.Context, f *MFAFactor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f MFAFactorFilter, p pagination.Params) ([]*MFAFactor, int, error)
	Exists(ctx context.Context, userID uuid.UUID, factorType, label string) (bool, error)
}
