package access

import (
	"github.com/google/uuid"

	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/timefmt"
)

// -- Role DTOs --

type RoleResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Permissions    []string  `json:"permissions"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
	DeletedAt      *string   `json:"deleted_at"`
}

func NewRoleResponse(r *Role) RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Description:    r.Description,
		Permissions:    perms,
		CreatedAt:      timefmt.Format(r.CreatedAt),
		UpdatedAt:      timefmt.Format(r.UpdatedAt),
		DeletedAt:      timefmt.FormatPtr(r.DeletedAt),
	}
}

type CreateRoleRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Permissions    []string  `json:"permissions"`
}

func (r CreateRoleRequest) model() *Role {
	return &Role{
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Description:    r.Description,
		Permissions:    r.Permissions,
	}
}

// UpdateRoleRequest replaces the permission set wholesale when present; null
// clears it.
type UpdateRoleRequest struct {
	Name        optional.Field[string]   `json:"name"`
	Description optional.Field[string]   `json:"description"`
	Permissions optional.Field[[]string] `json:"permissions"`
}

func (r UpdateRoleRequest) apply(role *Role) error {
	if err := optional.ApplyRequired(&role.Name, r.Name, "name"); err != nil {
		return err
	}
	optional.Apply(&role.Description, r.Description)
	if r.Permissions.IsNull() {
		role.Permissions = nil
	}
	if perms, ok := r.Permissions.Value(); ok {
		role.Permissions = perms
	}
	return role.validate()
}

func (r UpdateRoleRequest) fields() []string {
	return optional.Touched(map[string]optional.Presence{
		"name":        r.Name,
		"description": r.Description,
		"permissions": r.Permissions,
	})
}

// -- Role Assignment DTOs --

type RoleAssignmentResponse struct {
	ID             uuid.UUID `json:"id"`
	RoleID         uuid.UUID `json:"role_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	AssignedBy     uuid.UUID `json:"assigned_by"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

func NewRoleAssignmentResponse(a *RoleAssignment) RoleAssignmentResponse {
	return RoleAssignmentResponse{
		ID:             a.ID,
		RoleID:         a.RoleID,
		UserID:         a.UserID,
		OrganizationID: a.OrganizationID,
		AssignedBy:     a.AssignedBy,
		CreatedAt:      timefmt.Format(a.CreatedAt),
		UpdatedAt:      timefmt.Format(a.UpdatedAt),
	}
}

type AssignRoleRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// -- MFA Factor DTOs --

// MFAFactorResponse never carries the secret or its hash.
type MFAFactorResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	FactorType     string     `json:"factor_type"`
	Label          string     `json:"label"`
	Verified       bool       `json:"verified"`
	VerifiedAt     *string    `json:"verified_at"`
	LastUsedAt     *string    `json:"last_used_at"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

func NewMFAFactorResponse(f *MFAFactor) MFAFactorResponse {
	return MFAFactorResponse{
		ID:             f.ID,
		UserID:         f.UserID,
		OrganizationID: f.OrganizationID,
		FactorType:     f.FactorType,
		Label:          f.Label,
		Verified:       f.Verified(),
		VerifiedAt:     timefmt.FormatPtr(f.VerifiedAt),
		LastUsedAt:     timefmt.FormatPtr(f.LastUsedAt),
		CreatedAt:      timefmt.Format(f.CreatedAt),
		UpdatedAt:      timefmt.Format(f.UpdatedAt),
	}
}

// EnrollMFAFactorResponse is returned once, on enrollment. Secret cannot be
// retrieved again.
type EnrollMFAFactorResponse struct {
	MFAFactorResponse
	Secret string `json:"secret"`
}

type EnrollMFAFactorRequest struct {
	UserID         *uuid.UUID `json:"user_id"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	FactorType     string     `json:"factor_type"`
	Label          string     `json:"label"`
}

func (r EnrollMFAFactorRequest) model(userID uuid.UUID) *MFAFactor {
	return &MFAFactor{
		UserID:         userID,
		OrganizationID: r.OrganizationID,
		FactorType:     r.FactorType,
		Label:          r.Label,
	}
}

type VerifyMFAFactorRequest struct {
	Secret string `json:"secret"`
}
