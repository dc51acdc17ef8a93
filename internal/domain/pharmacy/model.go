package pharmacy

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const EntityPharmacyIntegration = "pharmacy_integration"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusError    = "error"
)

var validStatuses = map[string]bool{
	StatusActive:   true,
	StatusInactive: true,
	StatusError:    true,
}

var validVendors = map[string]bool{
	"surescripts": true,
	"dosespot":    true,
	"drfirst":     true,
	"rxnt":        true,
	"custom":      true,
}

// PharmacyIntegration maps to the pharmacy_integration table. An organization
// has at most one non-deleted integration per vendor.
type PharmacyIntegration struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	Vendor         string     `db:"vendor"`
	Name           string     `db:"name"`
	EndpointURL    string     `db:"endpoint_url"`
	Status         string     `db:"status"`
	LastSyncAt     *time.Time `db:"last_sync_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (p *PharmacyIntegration) validate() error {
	p.Vendor = strings.ToLower(strings.TrimSpace(p.Vendor))
	p.Name = strings.TrimSpace(p.Name)
	p.EndpointURL = strings.TrimSpace(p.EndpointURL)
	if p.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if !validVendors[p.Vendor] {
		return apperr.Validation("invalid vendor: %s", p.Vendor)
	}
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	u, err := url.Parse(p.EndpointURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return apperr.Validation("endpoint_url must be an absolute http(s) URL")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !validStatuses[p.Status] {
		return apperr.Validation("invalid status: %s", p.Status)
	}
	return nil
}
