package billing

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
	// Read endpoints
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleRegistrar, auth.RoleAuditor, auth.RoleComplianceOfficer))
	readGroup.GET("/billing-codes", h.ListBillingCodes)
	readGroup.GET("/billing-codes/:id", h.GetBillingCode)
	readGroup.GET("/billing-items", h.ListBillingItems)
	readGroup.GET("/billing-items/:id", h.GetBillingItem)

	// The price list is admin only; the front desk records charges.
	codeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	codeGroup.POST("/billing-codes", h.CreateBillingCode)
	codeGroup.PATCH("/billing-codes/:id", h.UpdateBillingCode)
	codeGroup.DELETE("/billing-codes/:id", h.DeleteBillingCode)

	itemGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleRegistrar))
	itemGroup.POST("/billing-items", h.CreateBillingItem)
	itemGroup.DELETE("/billing-items/:id", h.DeleteBillingItem)
}

// -- Billing Code Handlers --

func (h *Handler) CreateBillingCode(c echo.Context) error {
	var req CreateBillingCodeRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	code, err := h.svc.CreateBillingCode(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewBillingCodeResponse(code))
}

func (h *Handler) GetBillingCode(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	code, err := h.svc.GetBillingCode(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewBillingCodeResponse(code))
}

func (h *Handler) ListBillingCodes(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := BillingCodeFilter{
		Code:        params.String(c, "code"),
		CodeSystem:  params.String(c, "code_system"),
		Description: params.String(c, "description"),
		Order:       billingCodeSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.Active, err = params.Bool(c, "active"); err != nil {
		return err
	}
	if f.PriceMin, err = params.Int64(c, "price_min"); err != nil {
		return err
	}
	if f.PriceMax, err = params.Int64(c, "price_max"); err != nil {
		return err
	}
	codes, total, err := h.svc.ListBillingCodes(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(codes, NewBillingCodeResponse), total, p))
}

func (h *Handler) UpdateBillingCode(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateBillingCodeRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	code, err := h.svc.UpdateBillingCode(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewBillingCodeResponse(code))
}

func (h *Handler) DeleteBillingCode(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBillingCode(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Billing Item Handlers --

func (h *Handler) CreateBillingItem(c echo.Context) error {
	var req CreateBillingItemRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.CreateBillingItem(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewBillingItemResponse(item))
}

func (h *Handler) GetBillingItem(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	item, err := h.svc.GetBillingItem(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewBillingItemResponse(item))
}

func (h *Handler) ListBillingItems(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := BillingItemFilter{Order: billingItemSort.Resolve(params.Sort(c))}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.BillingCodeID, err = params.UUID(c, "billing_code_id"); err != nil {
		return err
	}
	if f.PatientID, err = params.UUID(c, "patient_id"); err != nil {
		return err
	}
	if f.AppointmentID, err = params.UUID(c, "appointment_id"); err != nil {
		return err
	}
	if f.ServiceFrom, err = params.Time(c, "service_date_from"); err != nil {
		return err
	}
	if f.ServiceTo, err = params.TimeUntil(c, "service_date_to"); err != nil {
		return err
	}
	items, total, err := h.svc.ListBillingItems(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(items, NewBillingItemResponse), total, p))
}

func (h *Handler) DeleteBillingItem(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBillingItem(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
