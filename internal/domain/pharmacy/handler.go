package pharmacy

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
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleAuditor, auth.RoleComplianceOfficer))
	readGroup.GET("/pharmacy-integrations", h.List)
	readGroup.GET("/pharmacy-integrations/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	writeGroup.POST("/pharmacy-integrations", h.Create)
	writeGroup.PATCH("/pharmacy-integrations/:id", h.Update)
	writeGroup.DELETE("/pharmacy-integrations/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreatePharmacyIntegrationRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewPharmacyIntegrationResponse(p))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPharmacyIntegrationResponse(p))
}

func (h *Handler) List(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := PharmacyIntegrationFilter{
		Vendor: params.String(c, "vendor"),
		Status: params.String(c, "status"),
		Name:   params.String(c, "name"),
		Order:  pharmacyIntegrationSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.SyncedFrom, err = params.Time(c, "synced_from"); err != nil {
		return err
	}
	if f.SyncedTo, err = params.TimeUntil(c, "synced_to"); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(items, NewPharmacyIntegrationResponse), total, p))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdatePharmacyIntegrationRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPharmacyIntegrationResponse(p))
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
