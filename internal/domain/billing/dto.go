package billing

import (
	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

type BillingCodeResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Code           string    `json:"code"`
	CodeSystem     string    `json:"code_system"`
	Description    string    `json:"description"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Active         bool      `json:"active"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

func NewBillingCodeResponse(c *BillingCode) BillingCodeResponse {
	return BillingCodeResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Code:           c.Code,
		CodeSystem:     c.CodeSystem,
		Description:    c.Description,
		UnitPriceCents: c.UnitPriceCents,
		Active:         c.Active,
		CreatedAt:      timefmt.Format(c.CreatedAt),
		UpdatedAt:      timefmt.Format(c.UpdatedAt),
	}
}

type CreateBillingCodeRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Code           string    `json:"code"`
	CodeSystem     string    `json:"code_system"`
	Description    string    `json:"description"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Active         *bool     `json:"active"`
}

func (r CreateBillingCodeRequest) model() *BillingCode {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &BillingCode{
		OrganizationID: r.OrganizationID,
		Code:           r.Code,
		CodeSystem:     r.CodeSystem,
		Description:    r.Description,
		UnitPriceCents: r.UnitPriceCents,
		Active:         active,
	}
}

type UpdateBillingCodeRequest struct {
	Code           optional.Field[string] `json:"code"`
	CodeSystem     optional.Field[string] `json:"code_system"`
	Description    optional.Field[string] `json:"description"`
	UnitPriceCents optional.Field[int64]  `json:"unit_price_cents"`
	Active         optional.Field[bool]   `json:"active"`
}

func (r UpdateBillingCodeRequest) apply(c *BillingCode) error {
	if err := optional.ApplyRequired(&c.Code, r.Code, "code"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&c.CodeSystem, r.CodeSystem, "code_system"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&c.Description, r.Description, "description"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&c.UnitPriceCents, r.UnitPriceCents, "unit_price_cents"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&c.Active, r.Active, "active"); err != nil {
		return err
	}
	return c.validate()
}

func (r UpdateBillingCodeRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"code":             r.Code,
		"code_system":      r.CodeSystem,
		"description":      r.Description,
		"unit_price_cents": r.UnitPriceCents,
		"active":           r.Active,
	})
}

// BillingItemResponse renders service_date as a calendar date.
type BillingItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	BillingCodeID  uuid.UUID  `json:"billing_code_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	AppointmentID  *uuid.UUID `json:"appointment_id"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	TotalCents     int64      `json:"total_cents"`
	ServiceDate    string     `json:"service_date"`
	Note           *string    `json:"note"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

func NewBillingItemResponse(i *BillingItem) BillingItemResponse {
	return BillingItemResponse{
		ID:             i.ID,
		OrganizationID: i.OrganizationID,
		BillingCodeID:  i.BillingCodeID,
		PatientID:      i.PatientID,
		AppointmentID:  i.AppointmentID,
		Quantity:       i.Quantity,
		UnitPriceCents: i.UnitPriceCents,
		TotalCents:     i.TotalCents(),
		ServiceDate:    i.ServiceDate.Format(timefmt.DateLayout),
		Note:           i.Note,
		CreatedAt:      timefmt.Format(i.CreatedAt),
		UpdatedAt:      timefmt.Format(i.UpdatedAt),
	}
}

// CreateBillingItemRequest takes the unit price from the code unless one is
// given explicitly.
type CreateBillingItemRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	BillingCodeID  uuid.UUID  `json:"billing_code_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	AppointmentID  *uuid.UUID `json:"appointment_id"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents *int64     `json:"unit_price_cents"`
	ServiceDate    string     `json:"service_date"`
	Note           *string    `json:"note"`
}

func (r CreateBillingItemRequest) model() (*BillingItem, error) {
	i := &BillingItem{
		OrganizationID: r.OrganizationID,
		BillingCodeID:  r.BillingCodeID,
		PatientID:      r.PatientID,
		AppointmentID:  r.AppointmentID,
		Quantity:       r.Quantity,
		Note:           r.Note,
	}
	if r.ServiceDate != "" {
		d, err := timefmt.ParseDate(r.ServiceDate)
		if err != nil {
			return nil, apperr.Validation("service_date must be formatted YYYY-MM-DD")
		}
		i.ServiceDate = d
	}
	if r.UnitPriceCents != nil {
		if *r.UnitPriceCents < 0 {
			return nil, apperr.Validation("unit_price_cents cannot be negative")
		}
		i.UnitPriceCents = *r.UnitPriceCents
	}
	return i, i.validate()
}
