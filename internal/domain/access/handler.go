package access

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/params"
	"github.com/ehr/admin/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin and oversight roles
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleComplianceOfficer, auth.RoleAuditor))
	readGroup.GET("/roles", h.ListRoles)
	readGroup.GET("/roles/:id", h.GetRole)
	readGroup.GET("/roles/:id/assignments", h.ListAssignmentsForRole)
	readGroup.GET("/role-assignments", h.ListRoleAssignments)
	readGroup.GET("/role-assignments/:id", h.GetRoleAssignment)

	// Write endpoints – admin only
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	writeGroup.POST("/roles", h.CreateRole)
	writeGroup.PATCH("/roles/:id", h.UpdateRole)
	writeGroup.DELETE("/roles/:id", h.DeleteRole)
	writeGroup.POST("/roles/:id/assignments", h.AssignRole)
	writeGroup.DELETE("/role-assignments/:id", h.RevokeRole)

	// MFA endpoints – every authenticated role, scoped to the caller
	mfa := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleComplianceOfficer, auth.RoleRegistrar, auth.RoleClinician, auth.RoleAuditor,
	))
	mfa.GET("/mfa-factors", h.ListMFAFactors)
	mfa.GET("/mfa-factors/:id", h.GetMFAFactor)
	mfa.POST("/mfa-factors", h.EnrollMFAFactor)
	mfa.POST("/mfa-factors/:id/verify", h.VerifyMFAFactor)
	mfa.DELETE("/mfa-factors/:id", h.RemoveMFAFactor)
}

// -- Role Handlers --

func (h *Handler) CreateRole(c echo.Context) error {
	var req CreateRoleRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	r, err := h.svc.CreateRole(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewRoleResponse(r))
}

func (h *Handler) GetRole(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GetRole(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewRoleResponse(r))
}

func (h *Handler) ListRoles(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := RoleFilter{
		Name:       params.String(c, "name"),
		Permission: params.String(c, "permission"),
		Order:      roleSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.CreatedFrom, err = params.Time(c, "created_from"); err != nil {
		return err
	}
	if f.CreatedTo, err = params.TimeUntil(c, "created_to"); err != nil {
		return err
	}
	roles, total, err := h.svc.ListRoles(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(roles, NewRoleResponse), total, p))
}

func (h *Handler) UpdateRole(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateRoleRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	r, err := h.svc.UpdateRole(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewRoleResponse(r))
}

func (h *Handler) DeleteRole(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRole(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Role Assignment Handlers --

func (h *Handler) AssignRole(c echo.Context) error {
	roleID, err := params.ID(c)
	if err != nil {
		return err
	}
	var req AssignRoleRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.AssignRole(c.Request().Context(), roleID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewRoleAssignmentResponse(a))
}

func (h *Handler) GetRoleAssignment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetRoleAssignment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewRoleAssignmentResponse(a))
}

func (h *Handler) RevokeRole(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.RevokeRole(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAssignmentsForRole(c echo.Context) error {
	roleID, err := params.ID(c)
	if err != nil {
		return err
	}
	return h.listAssignments(c, &roleID)
}

func (h *Handler) ListRoleAssignments(c echo.Context) error {
	roleID, err := params.UUID(c, "role_id")
	if err != nil {
		return err
	}
	return h.listAssignments(c, roleID)
}

func (h *Handler) listAssignments(c echo.Context, roleID *uuid.UUID) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := RoleAssignmentFilter{
		RoleID: roleID,
		Order:  roleAssignmentSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.UserID, err = params.UUID(c, "user_id"); err != nil {
		return err
	}
	items, total, err := h.svc.ListRoleAssignments(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(items, NewRoleAssignmentResponse), total, p))
}

// -- MFA Factor Handlers --

func (h *Handler) EnrollMFAFactor(c echo.Context) error {
	var req EnrollMFAFactorRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	f, secret, err := h.svc.EnrollMFAFactor(c.Request().Context(), req)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusCreated, EnrollMFAFactorResponse{MFAFactorResponse: NewMFAFactorResponse(f), Secret: secret})
}

func (h *Handler) GetMFAFactor(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	f, err := h.svc.GetMFAFactor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewMFAFactorResponse(f))
}

func (h *Handler) VerifyMFAFactor(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req VerifyMFAFactorRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	f, err := h.svc.VerifyMFAFactor(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewMFAFactorResponse(f))
}

func (h *Handler) RemoveMFAFactor(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.RemoveMFAFactor(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListMFAFactors(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := MFAFactorFilter{
		FactorType: params.String(c, "factor_type"),
		Order:      mfaFactorSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.UserID, err = params.UUID(c, "user_id"); err != nil {
		return err
	}
	if f.Verified, err = params.Bool(c, "verified"); err != nil {
		return err
	}
	factors, total, err := h.svc.ListMFAFactors(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(factors, NewMFAFactorResponse), total, p))
}
