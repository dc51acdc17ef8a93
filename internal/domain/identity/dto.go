package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

// PatientResponse renders birth_date as a calendar date.
type PatientResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	MRN            string    `json:"mrn"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	BirthDate      *string   `json:"birth_date"`
	Gender         *string   `json:"gender"`
	Phone          *string   `json:"phone"`
	Email          *string   `json:"email"`
	Active         bool      `json:"active"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
	DeletedAt      *string   `json:"deleted_at"`
}

func NewPatientResponse(p *Patient) PatientResponse {
	return PatientResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		MRN:            p.MRN,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		BirthDate:      timefmt.FormatDatePtr(p.BirthDate),
		Gender:         p.Gender,
		Phone:          p.Phone,
		Email:          p.Email,
		Active:         p.Active,
		CreatedAt:      timefmt.Format(p.CreatedAt),
		UpdatedAt:      timefmt.Format(p.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(p.DeletedAt),
	}
}

type CreatePatientRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	MRN            string    `json:"mrn"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	BirthDate      *string   `json:"birth_date"`
	Gender         *string   `json:"gender"`
	Phone          *string   `json:"phone"`
	Email          *string   `json:"email"`
}

func (r CreatePatientRequest) model() (*Patient, error) {
	p := &Patient{
		OrganizationID: r.OrganizationID,
		MRN:            r.MRN,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Gender:         r.Gender,
		Phone:          r.Phone,
		Email:          r.Email,
		Active:         true,
	}
	if r.BirthDate != nil {
		d, err := parseBirthDate(*r.BirthDate)
		if err != nil {
			return nil, err
		}
		p.BirthDate = &d
	}
	return p, p.validate()
}

// UpdatePatientRequest leaves out organization_id. MRN may be corrected.
type UpdatePatientRequest struct {
	MRN       optional.Field[string] `json:"mrn"`
	FirstName optional.Field[string] `json:"first_name"`
	LastName  optional.Field[string] `json:"last_name"`
	BirthDate optional.Field[string] `json:"birth_date"`
	Gender    optional.Field[string] `json:"gender"`
	Phone     optional.Field[string] `json:"phone"`
	Email     optional.Field[string] `json:"email"`
	Active    optional.Field[bool]   `json:"active"`
}

func (r UpdatePatientRequest) apply(p *Patient) error {
	if err := optional.ApplyRequired(&p.MRN, r.MRN, "mrn"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&p.FirstName, r.FirstName, "first_name"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&p.LastName, r.LastName, "last_name"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&p.Active, r.Active, "active"); err != nil {
		return err
	}
	switch {
	case r.BirthDate.IsNull():
		p.BirthDate = nil
	case r.BirthDate.IsSet():
		raw, _ := r.BirthDate.Value()
		d, err := parseBirthDate(raw)
		if err != nil {
			return err
		}
		p.BirthDate = &d
	}
	optional.Apply(&p.Gender, r.Gender)
	optional.Apply(&p.Phone, r.Phone)
	optional.Apply(&p.Email, r.Email)
	return p.validate()
}

func (r UpdatePatientRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"mrn": r.MRN, "first_name": r.FirstName, "last_name": r.LastName,
		"birth_date": r.BirthDate, "gender": r.Gender, "phone": r.Phone,
		"email": r.Email, "active": r.Active,
	})
}

func parseBirthDate(s string) (time.Time, error) {
	d, err := time.Parse(timefmt.DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("birth_date must be formatted YYYY-MM-DD")
	}
	return d, nil
}
