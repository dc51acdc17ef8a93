package identity

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
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)

	// Write endpoints – registration desk
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleRegistrar))
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.PATCH("/patients/:id", h.UpdatePatient)
	writeGroup.DELETE("/patients/:id", h.DeletePatient)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewPatientResponse(p))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPatientResponse(p))
}

func (h *Handler) ListPatients(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := PatientFilter{
		MRN:    params.String(c, "mrn"),
		Name:   params.String(c, "name"),
		Gender: params.String(c, "gender"),
		Order:  patientSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.Active, err = params.Bool(c, "active"); err != nil {
		return err
	}
	if f.BornFrom, err = params.Time(c, "birth_date_from"); err != nil {
		return err
	}
	if f.BornTo, err = params.TimeUntil(c, "birth_date_to"); err != nil {
		return err
	}
	patients, total, err := h.svc.ListPatients(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(patients, NewPatientResponse), total, p))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdatePatientRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPatientResponse(p))
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
