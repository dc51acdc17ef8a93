package admin

import (
	"net/http"

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
	// Read endpoints – every authenticated role
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleAuditor, auth.RoleComplianceOfficer, auth.RoleRegistrar, auth.RoleClinician))
	readGroup.GET("/organizations", h.ListOrganizations)
	readGroup.GET("/organizations/:id", h.GetOrganization)
	readGroup.GET("/departments", h.ListDepartments)
	readGroup.GET("/departments/:id", h.GetDepartment)
	readGroup.GET("/locale-settings", h.ListLocaleSettings)
	readGroup.GET("/locale-settings/:id", h.GetLocaleSetting)

	// Write endpoints – admin only
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	writeGroup.POST("/organizations", h.CreateOrganization)
	writeGroup.PATCH("/organizations/:id", h.UpdateOrganization)
	writeGroup.DELETE("/organizations/:id", h.DeleteOrganization)
	writeGroup.POST("/departments", h.CreateDepartment)
	writeGroup.PATCH("/departments/:id", h.UpdateDepartment)
	writeGroup.DELETE("/departments/:id", h.DeleteDepartment)
	writeGroup.POST("/locale-settings", h.CreateLocaleSetting)
	writeGroup.PATCH("/locale-settings/:id", h.UpdateLocaleSetting)
	writeGroup.DELETE("/locale-settings/:id", h.DeleteLocaleSetting)
}

// -- Organization Handlers --

func (h *Handler) CreateOrganization(c echo.Context) error {
	var req CreateOrganizationRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	org, err := h.svc.CreateOrganization(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewOrganizationResponse(org))
}

func (h *Handler) GetOrganization(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	org, err := h.svc.GetOrganization(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewOrganizationResponse(org))
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := OrganizationFilter{
		Name:     params.String(c, "name"),
		Code:     params.String(c, "code"),
		Status:   params.String(c, "status"),
		TypeCode: params.String(c, "type_code"),
		Order:    organizationSort.Resolve(params.Sort(c)),
	}
	if f.CreatedFrom, err = params.Time(c, "created_from"); err != nil {
		return err
	}
	if f.CreatedTo, err = params.TimeUntil(c, "created_to"); err != nil {
		return err
	}
	orgs, total, err := h.svc.ListOrganizations(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(orgs, NewOrganizationResponse), total, p))
}

func (h *Handler) UpdateOrganization(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateOrganizationRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	org, err := h.svc.UpdateOrganization(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewOrganizationResponse(org))
}

func (h *Handler) DeleteOrganization(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteOrganization(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Department Handlers --

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req CreateDepartmentRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	dept, err := h.svc.CreateDepartment(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewDepartmentResponse(dept))
}

func (h *Handler) GetDepartment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	dept, err := h.svc.GetDepartment(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewDepartmentResponse(dept))
}

func (h *Handler) ListDepartments(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := DepartmentFilter{
		Name:  params.String(c, "name"),
		Code:  params.String(c, "code"),
		Order: departmentSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.ManagerID, err = params.UUID(c, "manager_id"); err != nil {
		return err
	}
	if f.Active, err = params.Bool(c, "active"); err != nil {
		return err
	}
	depts, total, err := h.svc.ListDepartments(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(depts, NewDepartmentResponse), total, p))
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateDepartmentRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	dept, err := h.svc.UpdateDepartment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewDepartmentResponse(dept))
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Locale Setting Handlers --

func (h *Handler) CreateLocaleSetting(c echo.Context) error {
	var req CreateLocaleSettingRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	l, err := h.svc.CreateLocaleSetting(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewLocaleSettingResponse(l))
}

func (h *Handler) GetLocaleSetting(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLocaleSetting(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewLocaleSettingResponse(l))
}

func (h *Handler) ListLocaleSettings(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := LocaleSettingFilter{
		Language: params.String(c, "language"),
		Order:    localeSettingSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.DepartmentID, err = params.UUID(c, "department_id"); err != nil {
		return err
	}
	settings, total, err := h.svc.ListLocaleSettings(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(settings, NewLocaleSettingResponse), total, p))
}

func (h *Handler) UpdateLocaleSetting(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateLocaleSettingRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	l, err := h.svc.UpdateLocaleSetting(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewLocaleSettingResponse(l))
}

func (h *Handler) DeleteLocaleSetting(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteLocaleSetting(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
