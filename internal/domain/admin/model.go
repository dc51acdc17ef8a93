package admin

import (
	"net/mail"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

// Entity type names used in audit rows and error messages.
const (
	EntityOrganization  = "organization"
	EntityDepartment    = "department"
	EntityLocaleSetting = "locale_setting"
)

const (
	OrgStatusActive    = "active"
	OrgStatusInactive  = "inactive"
	OrgStatusSuspended = "suspended"
)

// Organization maps to the organization table. Code is unique across all
// organizations, deleted ones included.
type Organization struct {
	ID           uuid.UUID  `db:"id"`
	Name         string     `db:"name"`
	Code         string     `db:"code"`
	Status       string     `db:"status"`
	TypeCode     *string    `db:"type_code"`
	ContactEmail *string    `db:"contact_email"`
	Phone        *string    `db:"phone"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (o *Organization) validate() error {
	o.Name = strings.TrimSpace(o.Name)
	o.Code = strings.TrimSpace(o.Code)
	if o.Name == "" {
		return apperr.Validation("name is required")
	}
	if o.Code == "" {
		return apperr.Validation("code is required")
	}
	switch o.Status {
	case OrgStatusActive, OrgStatusInactive, OrgStatusSuspended:
	default:
		return apperr.Validation("status must be one of active, inactive, suspended")
	}
	return validEmail(o.ContactEmail)
}

// Department maps to the department table. Code is unique within an
// organization.
type Department struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	Name           string     `db:"name"`
	Code           string     `db:"code"`
	Description    *string    `db:"description"`
	ManagerID      *uuid.UUID `db:"manager_id"`
	Active         bool       `db:"active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (d *Department) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.TrimSpace(d.Code)
	if d.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if d.Name == "" {
		return apperr.Validation("name is required")
	}
	if d.Code == "" {
		return apperr.Validation("code is required")
	}
	return nil
}

// LocaleSetting maps to the locale_setting table. At most one active setting
// exists per organization and department; a nil DepartmentID is the
// organization-wide default.
type LocaleSetting struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	DepartmentID   *uuid.UUID `db:"department_id"`
	Language       string     `db:"language"`
	Timezone       string     `db:"timezone"`
	DateFormat     string     `db:"date_format"`
	Currency       *string    `db:"currency"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (l *LocaleSetting) validate() error {
	if l.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if strings.TrimSpace(l.Language) == "" {
		return apperr.Validation("language is required")
	}
	if _, err := time.LoadLocation(l.Timezone); err != nil || l.Timezone == "" {
		return apperr.Validation("timezone %q is not a valid IANA zone", l.Timezone)
	}
	if strings.TrimSpace(l.DateFormat) == "" {
		return apperr.Validation("date_format is required")
	}
	if l.Currency != nil && len(*l.Currency) != 3 {
		return apperr.Validation("currency must be an ISO 4217 code")
	}
	return nil
}

func validEmail(s *string) error {
	if s == nil {
		return nil
	}
	if _, err := mail.ParseAddress(*s); err != nil {
		return apperr.Validation("invalid email address %q", *s)
	}
	return nil
}
