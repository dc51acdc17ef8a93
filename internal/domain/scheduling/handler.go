package scheduling

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
	// Read endpoints – clinical staff plus oversight roles
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleRegistrar, auth.RoleClinician, auth.RoleAuditor, auth.RoleComplianceOfficer))
	readGroup.GET("/appointments", h.ListAppointments)
	readGroup.GET("/appointments/:id", h.GetAppointment)

	// Write endpoints – front desk
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleRegistrar))
	writeGroup.POST("/appointments", h.CreateAppointment)
	writeGroup.PATCH("/appointments/:id", h.UpdateAppointment)
	writeGroup.POST("/appointments/:id/cancel", h.CancelAppointment)
	writeGroup.DELETE("/appointments/:id", h.DeleteAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req CreateAppointmentRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewAppointmentResponse(a))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

func (h *Handler) ListAppointments(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := AppointmentFilter{
		Status: params.String(c, "status"),
		Order:  appointmentSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.PatientID, err = params.UUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DepartmentID, err = params.UUID(c, "department_id"); err != nil {
		return err
	}
	if f.PractitionerID, err = params.UUID(c, "practitioner_id"); err != nil {
		return err
	}
	if f.StartFrom, err = params.Time(c, "start_from"); err != nil {
		return err
	}
	if f.StartTo, err = params.TimeUntil(c, "start_to"); err != nil {
		return err
	}
	appts, total, err := h.svc.ListAppointments(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(appts, NewAppointmentResponse), total, p))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateAppointmentRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req CancelAppointmentRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
