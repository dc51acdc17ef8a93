package admin

import (
	"github.com/google/uuid"

	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

// -- Organization --

type OrganizationResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	TypeCode     *string   `json:"type_code"`
	ContactEmail *string   `json:"contact_email"`
	Phone        *string   `json:"phone"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
	DeletedAt    *string   `json:"deleted_at"`
}

func NewOrganizationResponse(o *Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:           o.ID,
		Name:         o.Name,
		Code:         o.Code,
		Status:       o.Status,
		TypeCode:     o.TypeCode,
		ContactEmail: o.ContactEmail,
		Phone:        o.Phone,
		CreatedAt:    timefmt.Format(o.CreatedAt),
		UpdatedAt:    timefmt.Format(o.UpdatedAt),
		DeletedAt:    timefmt.FormatPtr(o.DeletedAt),
	}
}

type CreateOrganizationRequest struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	Status       string  `json:"status"`
	TypeCode     *string `json:"type_code"`
	ContactEmail *string `json:"contact_email"`
	Phone        *string `json:"phone"`
}

func (r CreateOrganizationRequest) model() *Organization {
	status := r.Status
	if status == "" {
		status = OrgStatusActive
	}
	return &Organization{
		Name:         r.Name,
		Code:         r.Code,
		Status:       status,
		TypeCode:     r.TypeCode,
		ContactEmail: r.ContactEmail,
		Phone:        r.Phone,
	}
}

type UpdateOrganizationRequest struct {
	Name         optional.Field[string] `json:"name"`
	Code         optional.Field[string] `json:"code"`
	Status       optional.Field[string] `json:"status"`
	TypeCode     optional.Field[string] `json:"type_code"`
	ContactEmail optional.Field[string] `json:"contact_email"`
	Phone        optional.Field[string] `json:"phone"`
}

func (r UpdateOrganizationRequest) apply(o *Organization) error {
	if err := optional.ApplyRequired(&o.Name, r.Name, "name"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&o.Code, r.Code, "code"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&o.Status, r.Status, "status"); err != nil {
		return err
	}
	optional.Apply(&o.TypeCode, r.TypeCode)
	optional.Apply(&o.ContactEmail, r.ContactEmail)
	optional.Apply(&o.Phone, r.Phone)
	return o.validate()
}

func (r UpdateOrganizationRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"name": r.Name, "code": r.Code, "status": r.Status,
		"type_code": r.TypeCode, "contact_email": r.ContactEmail, "phone": r.Phone,
	})
}

// -- Department --

type DepartmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	Description    *string    `json:"description"`
	ManagerID      *uuid.UUID `json:"manager_id"`
	Active         bool       `json:"active"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	DeletedAt      *string    `json:"deleted_at"`
}

func NewDepartmentResponse(d *Department) DepartmentResponse {
	return DepartmentResponse{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Name:           d.Name,
		Code:           d.Code,
		Description:    d.Description,
		ManagerID:      d.ManagerID,
		Active:         d.Active,
		CreatedAt:      timefmt.Format(d.CreatedAt),
		UpdatedAt:      timefmt.Format(d.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(d.DeletedAt),
	}
}

type CreateDepartmentRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	Description    *string    `json:"description"`
	ManagerID      *uuid.UUID `json:"manager_id"`
	Active         *bool      `json:"active"`
}

func (r CreateDepartmentRequest) model() *Department {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &Department{
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Code:           r.Code,
		Description:    r.Description,
		ManagerID:      r.ManagerID,
		Active:         active,
	}
}

// UpdateDepartmentRequest omits organization_id: a department never moves
// between organizations.
type UpdateDepartmentRequest struct {
	Name        optional.Field[string]    `json:"name"`
	Code        optional.Field[string]    `json:"code"`
	Description optional.Field[string]    `json:"description"`
	ManagerID   optional.Field[uuid.UUID] `json:"manager_id"`
	Active      optional.Field[bool]      `json:"active"`
}

func (r UpdateDepartmentRequest) apply(d *Department) error {
	if err := optional.ApplyRequired(&d.Name, r.Name, "name"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&d.Code, r.Code, "code"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&d.Active, r.Active, "active"); err != nil {
		return err
	}
	optional.Apply(&d.Description, r.Description)
	optional.Apply(&d.ManagerID, r.ManagerID)
	return d.validate()
}

func (r UpdateDepartmentRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"name": r.Name, "code": r.Code, "description": r.Description,
		"manager_id": r.ManagerID, "active": r.Active,
	})
}

// -- Locale Setting --

type LocaleSettingResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	Language       string     `json:"language"`
	Timezone       string     `json:"timezone"`
	DateFormat     string     `json:"date_format"`
	Currency       *string    `json:"currency"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	DeletedAt      *string    `json:"deleted_at"`
}

func NewLocaleSettingResponse(l *LocaleSetting) LocaleSettingResponse {
	return LocaleSettingResponse{
		ID:             l.ID,
		OrganizationID: l.OrganizationID,
		DepartmentID:   l.DepartmentID,
		Language:       l.Language,
		Timezone:       l.Timezone,
		DateFormat:     l.DateFormat,
		Currency:       l.Currency,
		CreatedAt:      timefmt.Format(l.CreatedAt),
		UpdatedAt:      timefmt.Format(l.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(l.DeletedAt),
	}
}

type CreateLocaleSettingRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	Language       string     `json:"language"`
	Timezone       string     `json:"timezone"`
	DateFormat     string     `json:"date_format"`
	Currency       *string    `json:"currency"`
}

func (r CreateLocaleSettingRequest) model() *LocaleSetting {
	l := &LocaleSetting{
		OrganizationID: r.OrganizationID,
		DepartmentID:   r.DepartmentID,
		Language:       r.Language,
		Timezone:       r.Timezone,
		DateFormat:     r.DateFormat,
		Currency:       r.Currency,
	}
	if l.Timezone == "" {
		l.Timezone = "UTC"
	}
	if l.DateFormat == "" {
		l.DateFormat = "YYYY-MM-DD"
	}
	return l
}

// UpdateLocaleSettingRequest carries no scope fields; the (organization,
// department) pair is fixed at creation.
type UpdateLocaleSettingRequest struct {
	Language   optional.Field[string] `json:"language"`
	Timezone   optional.Field[string] `json:"timezone"`
	DateFormat optional.Field[string] `json:"date_format"`
	Currency   optional.Field[string] `json:"currency"`
}

func (r UpdateLocaleSettingRequest) apply(l *LocaleSetting) error {
	if err := optional.ApplyRequired(&l.Language, r.Language, "language"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&l.Timezone, r.Timezone, "timezone"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&l.DateFormat, r.DateFormat, "date_format"); err != nil {
		return err
	}
	optional.Apply(&l.Currency, r.Currency)
	return l.validate()
}

func (r UpdateLocaleSettingRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"language": r.Language, "timezone": r.Timezone,
		"date_format": r.DateFormat, "currency": r.Currency,
	})
}
