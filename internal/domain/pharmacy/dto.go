package pharmacy

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

type PharmacyIntegrationResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Vendor         string    `json:"vendor"`
	Name           string    `json:"name"`
	EndpointURL    string    `json:"endpoint_url"`
	Status         string    `json:"status"`
	LastSyncAt     *string   `json:"last_sync_at"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
	DeletedAt      *string   `json:"deleted_at"`
}

func NewPharmacyIntegrationResponse(p *PharmacyIntegration) PharmacyIntegrationResponse {
	return PharmacyIntegrationResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Vendor:         p.Vendor,
		Name:           p.Name,
		EndpointURL:    p.EndpointURL,
		Status:         p.Status,
		LastSyncAt:     timefmt.FormatPtr(p.LastSyncAt),
		CreatedAt:      timefmt.Format(p.CreatedAt),
		UpdatedAt:      timefmt.Format(p.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(p.DeletedAt),
	}
}

type CreatePharmacyIntegrationRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Vendor         string    `json:"vendor"`
	Name           string    `json:"name"`
	EndpointURL    string    `json:"endpoint_url"`
	Status         string    `json:"status"`
}

func (r CreatePharmacyIntegrationRequest) model() *PharmacyIntegration {
	return &PharmacyIntegration{
		OrganizationID: r.OrganizationID,
		Vendor:         r.Vendor,
		Name:           r.Name,
		EndpointURL:    r.EndpointURL,
		Status:         r.Status,
	}
}

type UpdatePharmacyIntegrationRequest struct {
	Vendor      optional.Field[string]    `json:"vendor"`
	Name        optional.Field[string]    `json:"name"`
	EndpointURL optional.Field[string]    `json:"endpoint_url"`
	Status      optional.Field[string]    `json:"status"`
	LastSyncAt  optional.Field[time.Time] `json:"last_sync_at"`
}

func (r UpdatePharmacyIntegrationRequest) apply(p *PharmacyIntegration) error {
	if err := optional.ApplyRequired(&p.Vendor, r.Vendor, "vendor"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&p.Name, r.Name, "name"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&p.EndpointURL, r.EndpointURL, "endpoint_url"); err != nil {
		return err
	}
	if err := optional.ApplyRequired(&p.Status, r.Status, "status"); err != nil {
		return err
	}
	optional.Apply(&p.LastSyncAt, r.LastSyncAt)
	if p.LastSyncAt != nil {
		t := p.LastSyncAt.UTC()
		p.LastSyncAt = &t
	}
	return p.validate()
}

func (r UpdatePharmacyIntegrationRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"vendor":       r.Vendor,
		"name":         r.Name,
		"endpoint_url": r.EndpointURL,
		"status":       r.Status,
		"last_sync_at": r.LastSyncAt,
	})
}
