package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const EntityPatient = "patient"

const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)

// Patient maps to the patient table. MRN is unique within an organization,
// deleted patients included.
type Patient struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	MRN            string     `db:"mrn"`
	FirstName      string     `db:"first_name"`
	LastName       string     `db:"last_name"`
	BirthDate      *time.Time `db:"birth_date"`
	Gender         *string    `db:"gender"`
	Phone          *string    `db:"phone"`
	Email          *string    `db:"email"`
	Active         bool       `db:"active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (p *Patient) validate() error {
	p.MRN = strings.TrimSpace(p.MRN)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if p.MRN == "" {
		return apperr.Validation("mrn is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return apperr.Validation("birth_date cannot be in the future")
	}
	if p.Gender != nil {
		switch *p.Gender {
		case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		default:
			return apperr.Validation("gender must be one of male, female, other, unknown")
		}
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return apperr.Validation("invalid email address %q", *p.Email)
		}
	}
	return nil
}
