package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const (
	RoleAdmin             = "admin"
	RoleComplianceOfficer = "compliance_officer"
	RoleRegistrar         = "registrar"
	RoleClinician         = "clinician"
	RoleAuditor           = "auditor"
)

// Principal is the authenticated caller. OrganizationID is nil for
// platform-level callers that may act on any organization.
type Principal struct {
	UserID         uuid.UUID
	Roles          []string
	OrganizationID *uuid.UUID
}

// HasRole reports whether the principal holds any of roles. Admin holds all.
func (p Principal) HasRole(roles ...string) bool {
	for _, has := range p.Roles {
		if has == RoleAdmin {
			return true
		}
		for _, want := range roles {
			if has == want {
				return true
			}
		}
	}
	return false
}

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// ActorID returns the caller's user id, or uuid.Nil when unauthenticated.
func ActorID(ctx context.Context) uuid.UUID {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}

// ScopeOrganization narrows an organization filter to the caller's scope.
// An org-bound caller gets its own organization when none is requested and
// is refused any other one.
func ScopeOrganization(ctx context.Context, requested *uuid.UUID) (*uuid.UUID, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	if p.OrganizationID == nil {
		return requested, nil
	}
	if requested == nil {
		org := *p.OrganizationID
		return &org, nil
	}
	if *requested != *p.OrganizationID {
		return nil, apperr.Unauthorized("organization %s is outside the caller's scope", requested)
	}
	return requested, nil
}

// EnsureOrganization refuses access to a record owned by another organization.
func EnsureOrganization(ctx context.Context, orgID uuid.UUID) error {
	_, err := ScopeOrganization(ctx, &orgID)
	return err
}

// CanViewDeleted reports whether the caller may read soft-deleted records.
func CanViewDeleted(ctx context.Context) bool {
	p, ok := PrincipalFromContext(ctx)
	return ok && p.HasRole(RoleAuditor)
}

// CheckIncludeDeleted refuses a request for soft-deleted records from a caller
// who may not see them.
func CheckIncludeDeleted(ctx context.Context, include bool) error {
	if include && !CanViewDeleted(ctx) {
		return apperr.Unauthorized("include_deleted requires the admin or auditor role")
	}
	return nil
}

// IsAdmin reports whether the caller holds the admin role itself. Use it for
// owner-or-admin checks, where HasRole would also match the owner's roles.
func IsAdmin(ctx context.Context) bool {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range p.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
