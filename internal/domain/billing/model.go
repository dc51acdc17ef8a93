package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const (
	EntityBillingCode = "billing_code"
	EntityBillingItem = "billing_item"
)

var validCodeSystems = map[string]bool{
	"CPT":    true,
	"HCPCS":  true,
	"ICD-10": true,
	"LOCAL":  true,
}

// BillingCode maps to the billing_code table. Codes are hard deleted and only
// when no billing item references them.
type BillingCode struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Code           string    `db:"code"`
	CodeSystem     string    `db:"code_system"`
	Description    string    `db:"description"`
	UnitPriceCents int64     `db:"unit_price_cents"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (c *BillingCode) validate() error {
	c.Code = strings.TrimSpace(c.Code)
	c.CodeSystem = strings.ToUpper(strings.TrimSpace(c.CodeSystem))
	if c.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if c.Code == "" {
		return apperr.Validation("code is required")
	}
	if !validCodeSystems[c.CodeSystem] {
		return apperr.Validation("invalid code_system: %s", c.CodeSystem)
	}
	if strings.TrimSpace(c.Description) == "" {
		return apperr.Validation("description is required")
	}
	if c.UnitPriceCents < 0 {
		return apperr.Validation("unit_price_cents cannot be negative")
	}
	return nil
}

// BillingItem maps to the billing_item table. UnitPriceCents is copied from
// the code when the item is created so later price changes do not rewrite
// history.
type BillingItem struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	BillingCodeID  uuid.UUID  `db:"billing_code_id"`
	PatientID      uuid.UUID  `db:"patient_id"`
	AppointmentID  *uuid.UUID `db:"appointment_id"`
	Quantity       int        `db:"quantity"`
	UnitPriceCents int64      `db:"unit_price_cents"`
	ServiceDate    time.Time  `db:"service_date"`
	Note           *string    `db:"note"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (i *BillingItem) TotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

func (i *BillingItem) validate() error {
	if i.OrganizationID == uuid.Nil || i.BillingCodeID == uuid.Nil || i.PatientID == uuid.Nil {
		return apperr.Validation("organization_id, billing_code_id and patient_id are required")
	}
	if i.Quantity <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	if i.ServiceDate.IsZero() {
		return apperr.Validation("service_date is required")
	}
	return nil
}
