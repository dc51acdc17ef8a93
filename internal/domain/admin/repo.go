package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
	"github.com/ehr/admin/pkg/pagination"
)

// OrganizationFilter narrows an organization list. Nil fields impose no
// constraint.
type OrganizationFilter struct {
	ID          *uuid.UUID
	Name        *string
	Code        *string
	Status      *string
	TypeCode    *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Order       query.Order
}

var organizationSort = query.SortSpec{
	Allowed: map[string]string{
		"name":       "name",
		"code":       "code",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	Default: "created_at",
}

type DepartmentFilter struct {
	OrganizationID *uuid.UUID
	Name           *string
	Code           *string
	ManagerID      *uuid.UUID
	Active         *bool
	Order          query.Order
}

var departmentSort = query.SortSpec{
	Allowed: map[string]string{
		"name":       "name",
		"code":       "code",
		"created_at": "created_at",
	},
	Default: "created_at",
}

type LocaleSettingFilter struct {
	OrganizationID *uuid.UUID
	DepartmentID   *uuid.UUID
	Language       *string
	Order          query.Order
}

var localeSettingSort = query.SortSpec{
	Allowed: map[string]string{
		"language":   "language",
		"created_at": "created_at",
	},
	Default: "created_at",
}

// OrganizationRepository defines the persistence interface for organizations.
// Get, Update and SoftDelete only see active rows; GetAny also sees deleted ones.
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetAny(ctx context.Context, id uuid.UUID) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f OrganizationFilter, p pagination.Params) ([]*Organization, int, error)
	CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
}

// DepartmentRepository defines the persistence interface for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *Department) error
	Get(ctx context.Context, id uuid.UUID) (*Department, error)
	GetAny(ctx context.Context, id uuid.UUID) (*Department, error)
	Update(ctx context.Context, dept *Department) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f DepartmentFilter, p pagination.Params) ([]*Department, int, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string, excludeID uuid.UUID) (bool, error)
	HasActive(ctx context.Context, orgID uuid.UUID) (bool, error)
}

// LocaleSettingRepository defines the persistence interface for locale settings.
type LocaleSettingRepository interface {
	Create(ctx context.Context, l *LocaleSetting) error
	Get(ctx context.Context, id uuid.UUID) (*LocaleSetting, error)
	GetAny(ctx context.Context, id uuid.UUID) (*LocaleSetting, error)
	Update(ctx context.Context, l *LocaleSetting) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f LocaleSettingFilter, p pagination.Params) ([]*LocaleSetting, int, error)
	ActiveExists(ctx context.Context, orgID uuid.UUID, deptID *uuid.UUID) (bool, error)
	HasActiveForDepartment(ctx context.Context, deptID uuid.UUID) (bool, error)
}
