package access

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/pkg/pagination"
)

// secretBytes is the entropy of an enrollment secret: 160 bits, the RFC 4226
// recommended shared secret length.
const secretBytes = 20

type Service struct {
	roles       RoleRepository
	assignments RoleAssignmentRepository
	factors     MFAFactorRepository
	tx          db.TxRunner
	audit       audit.Sink
	now         func() time.Time
	bcryptCost  int
}

func NewService(roles RoleRepository, assignments RoleAssignmentRepository, factors MFAFactorRepository, tx db.TxRunner, sink audit.Sink) *Service {
	return &Service{
		roles:       roles,
		assignments: assignments,
		factors:     factors,
		tx:          tx,
		audit:       sink,
		now:         time.Now,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// -- Role --

func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	r := req.model()
	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, r.OrganizationID); err != nil {
		return nil, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.roles.NameExists(ctx, r.OrganizationID, r.Name, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("role %q already exists in organization %s", r.Name, r.OrganizationID)
		}
		if err := s.roles.Create(ctx, r); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionCreate, EntityRole, r.ID).
			InOrganization(r.OrganizationID).
			With("name", r.Name).
			With("permissions", r.Permissions))
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) GetRole(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Role, error) {
	if err := auth.CheckIncludeDeleted(ctx, includeDeleted); err != nil {
		return nil, err
	}
	get := s.roles.Get
	if includeDeleted {
		get = s.roles.GetAny
	}
	r, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, r.OrganizationID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*Role, error) {
	var role *Role
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		r, err := s.GetRole(ctx, id, false)
		if err != nil {
			return err
		}
		before := r.Name
		if err := req.apply(r); err != nil {
			return err
		}
		if r.Name != before {
			taken, err := s.roles.NameExists(ctx, r.OrganizationID, r.Name, r.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("role %q already exists in organization %s", r.Name, r.OrganizationID)
			}
		}
		if err := s.roles.Update(ctx, r); err != nil {
			return err
		}
		role = r
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionUpdate, EntityRole, r.ID).
			InOrganization(r.OrganizationID).
			With("fields", req.fields()))
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole soft-deletes a role nobody holds any more.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		r, err := s.GetRole(ctx, id, false)
		if err != nil {
			return err
		}
		n, err := s.assignments.CountForRole(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("role %q has %d active assignments", r.Name, n)
		}
		if err := s.roles.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionDelete, EntityRole, id).
			InOrganization(r.OrganizationID))
	})
}

func (s *Service) ListRoles(ctx context.Context, f RoleFilter, p pagination.Params) ([]*Role, int, error) {
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.roles.List(ctx, f, p)
}

// -- Role Assignment --

// AssignRole grants an active role to a user. A user holds a role at most
// once.
func (s *Service) AssignRole(ctx context.Context, roleID uuid.UUID, req AssignRoleRequest) (*RoleAssignment, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validation("user_id is required")
	}
	var out *RoleAssignment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		r, err := s.GetRole(ctx, roleID, false)
		if err != nil {
			return err
		}
		held, err := s.assignments.Exists(ctx, roleID, req.UserID)
		if err != nil {
			return err
		}
		if held {
			return apperr.Conflict("user %s already holds role %q", req.UserID, r.Name)
		}
		a := &RoleAssignment{
			RoleID:         roleID,
			UserID:         req.UserID,
			OrganizationID: r.OrganizationID,
			AssignedBy:     auth.ActorID(ctx),
		}
		if err := s.assignments.Create(ctx, a); err != nil {
			return err
		}
		out = a
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionAssign, EntityRoleAssignment, a.ID).
			InOrganization(a.OrganizationID).
			With("role_id", roleID.String()).
			With("user_id", req.UserID.String()))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetRoleAssignment(ctx context.Context, id uuid.UUID) (*RoleAssignment, error) {
	a, err := s.assignments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganization(ctx, a.OrganizationID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) RevokeRole(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.GetRoleAssignment(ctx, id)
		if err != nil {
			return err
		}
		if err := s.assignments.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.NewEvent(ctx, audit.ActionRevoke, EntityRoleAssignment, id).
			InOrganization(a.OrganizationID).
			With("role_id", a.RoleID.String()).
			With("user_id", a.UserID.String()))
	})
}

func (s *Service) ListRoleAssignments(ctx context.Context, f RoleAssignmentFilter, p pagination.Params) ([]*RoleAssignment, int, error) {
	if f.RoleID != nil {
		if _, err := s.GetRole(ctx, *f.RoleID, false); err != nil {
			return nil, 0, err
		}
	}
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.assignments.List(ctx, f, p)
}

// -- MFA Factor --

// EnrollMFAFactor creates an unverified factor and returns its secret. The
// secret is shown only here; the store keeps a bcrypt hash. Non-admins may
// only enroll factors for themselves.
func (s *Service) EnrollMFAFactor(ctx context.Context, req EnrollMFAFactorRequest) (*MFAFactor, string, error) {
	userID := auth.ActorID(ctx)
	if req.UserID != nil && *req.UserID != userID {
		if !auth.IsAdmin(ctx) {
			return nil, "", apperr.Unauthorized("only admins may enroll factors for another user")
		}
		userID = *req.UserID
	}
	f := req.model(userID)
	if err := f.validate(); err != nil {
		return nil, "", err
	}
	if f.OrganizationID != nil {
		if err := auth.EnsureOrganization(ctx, *f.OrganizationID); err != nil {
			return nil, "", err
		}
	}
	secret, err := newSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash mfa secret: %w", err)
	}
	f.SecretHash = string(hash)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.factors.Exists(ctx, f.UserID, f.FactorType, f.Label)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("%s factor %q already enrolled for user %s", f.FactorType, f.Label, f.UserID)
		}
		if err := s.factors.Create(ctx, f); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.factorEvent(ctx, audit.ActionEnroll, f).
			With("factor_type", f.FactorType))
	})
	if err != nil {
		return nil, "", err
	}
	return f, secret, nil
}

func (s *Service) GetMFAFactor(ctx context.Context, id uuid.UUID) (*MFAFactor, error) {
	f, err := s.factors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID == auth.ActorID(ctx) {
		return f, nil
	}
	if !auth.IsAdmin(ctx) {
		return nil, apperr.NotFound(EntityMFAFactor)
	}
	if f.OrganizationID != nil {
		if err := auth.EnsureOrganization(ctx, *f.OrganizationID); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// VerifyMFAFactor confirms the owner holds the enrollment secret and marks
// the factor verified.
func (s *Service) VerifyMFAFactor(ctx context.Context, id uuid.UUID, req VerifyMFAFactorRequest) (*MFAFactor, error) {
	if req.Secret == "" {
		return nil, apperr.Validation("secret is required")
	}
	var out *MFAFactor
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		f, err := s.factors.Get(ctx, id)
		if err != nil {
			return err
		}
		if f.UserID != auth.ActorID(ctx) {
			return apperr.NotFound(EntityMFAFactor)
		}
		if f.Verified() {
			return apperr.Conflict("mfa factor %s is already verified", id)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(f.SecretHash), []byte(req.Secret)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return apperr.Unauthorized("mfa secret does not match")
			}
			return fmt.Errorf("compare mfa secret: %w", err)
		}
		at := s.now().UTC()
		f.VerifiedAt = &at
		f.LastUsedAt = &at
		if err := s.factors.Update(ctx, f); err != nil {
			return err
		}
		out = f
		return s.audit.Record(ctx, s.factorEvent(ctx, audit.ActionVerify, f))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveMFAFactor deletes a factor. Owners and admins may remove it.
func (s *Service) RemoveMFAFactor(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		f, err := s.GetMFAFactor(ctx, id)
		if err != nil {
			return err
		}
		if err := s.factors.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.factorEvent(ctx, audit.ActionRemove, f).
			With("user_id", f.UserID.String()))
	})
}

// ListMFAFactors returns the caller's factors. Admins may list any user's.
func (s *Service) ListMFAFactors(ctx context.Context, f MFAFactorFilter, p pagination.Params) ([]*MFAFactor, int, error) {
	if !auth.IsAdmin(ctx) {
		self := auth.ActorID(ctx)
		if f.UserID != nil && *f.UserID != self {
			return nil, 0, apperr.Unauthorized("only admins may list another user's factors")
		}
		f.UserID = &self
		return s.factors.List(ctx, f, p)
	}
	scoped, err := auth.ScopeOrganization(ctx, f.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	f.OrganizationID = scoped
	return s.factors.List(ctx, f, p)
}

func (s *Service) factorEvent(ctx context.Context, action audit.Action, f *MFAFactor) audit.Event {
	ev := audit.NewEvent(ctx, action, EntityMFAFactor, f.ID)
	if f.OrganizationID != nil {
		ev = ev.InOrganization(*f.OrganizationID)
	}
	return ev
}

// newSecret returns a base32 encoded random secret, the encoding
// authenticator apps accept.
func newSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate mfa secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}
