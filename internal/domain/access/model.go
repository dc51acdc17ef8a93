package access

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
)

const (
	EntityRole           = "role"
	EntityRoleAssignment = "role_assignment"
	EntityMFAFactor      = "mfa_factor"
)

// permissionPattern matches "resource:action", either side may be "*".
var permissionPattern = regexp.MustCompile(`^([a-z][a-z0-9_-]*|\*):([a-z][a-z0-9_-]*|\*)$`)

// Role maps to the role table. Name is unique within an organization,
// deleted roles included.
type Role struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	Name           string     `db:"name"`
	Description    *string    `db:"description"`
	Permissions    []string   `db:"permissions"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (r *Role) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.OrganizationID == uuid.Nil {
		return apperr.Validation("organization_id is required")
	}
	if r.Name == "" {
		return apperr.Validation("name is required")
	}
	perms, err := normalizePermissions(r.Permissions)
	if err != nil {
		return err
	}
	r.Permissions = perms
	return nil
}

// normalizePermissions lower-cases, de-duplicates and sorts perms.
func normalizePermissions(perms []string) ([]string, error) {
	seen := make(map[string]bool, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.ToLower(strings.TrimSpace(p))
		if !permissionPattern.MatchString(p) {
			return nil, apperr.Validation("invalid permission %q: expected resource:action", p)
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RoleAssignment grants a role to a user. It is removed on revoke.
type RoleAssignment struct {
	ID             uuid.UUID `db:"id"`
	RoleID         uuid.UUID `db:"role_id"`
	UserID         uuid.UUID `db:"user_id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	AssignedBy     uuid.UUID `db:"assigned_by"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const (
	FactorTOTP         = "totp"
	FactorSMS          = "sms"
	FactorEmail        = "email"
	FactorRecoveryCode = "recovery_code"
)

var validFactorTypes = map[string]bool{
	FactorTOTP:         true,
	FactorSMS:          true,
	FactorEmail:        true,
	FactorRecoveryCode: true,
}

// MFAFactor maps to the mfa_factor table. Only a bcrypt hash of the
// enrollment secret is stored.
type MFAFactor struct {
	ID             uuid.UUID  `db:"id"`
	UserID         uuid.UUID  `db:"user_id"`
	OrganizationID *uuid.UUID `db:"organization_id"`
	FactorType     string     `db:"factor_type"`
	Label          string     `db:"label"`
	SecretHash     string     `db:"secret_hash"`
	VerifiedAt     *time.Time `db:"verified_at"`
	LastUsedAt     *time.Time `db:"last_used_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (f *MFAFactor) validate() error {
	f.FactorType = strings.ToLower(strings.TrimSpace(f.FactorType))
	f.Label = strings.TrimSpace(f.Label)
	if f.UserID == uuid.Nil {
		return apperr.Validation("user_id is required")
	}
	if !validFactorTypes[f.FactorType] {
		return apperr.Validation("invalid factor_type: %s", f.FactorType)
	}
	if f.Label == "" {
		f.Label = f.FactorType
	}
	return nil
}

func (f *MFAFactor) Verified() bool {
	return f.VerifiedAt != nil
}
