package compliance

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/params"
	"github.com/ehr/admin/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – compliance and oversight roles
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleComplianceOfficer, auth.RoleAuditor))
	readGroup.GET("/legal-holds", h.ListLegalHolds)
	readGroup.GET("/legal-holds/:id", h.GetLegalHold)
	readGroup.GET("/compliance-reviews", h.ListComplianceReviews)
	readGroup.GET("/compliance-reviews/:id", h.GetComplianceReview)
	readGroup.GET("/audit-logs", h.ListAuditLogs)
	readGroup.GET("/audit-logs/export", h.ExportAuditLogs)

	// Write endpoints – compliance officers
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleComplianceOfficer))
	writeGroup.POST("/legal-holds", h.CreateLegalHold)
	writeGroup.PATCH("/legal-holds/:id", h.UpdateLegalHold)
	writeGroup.POST("/legal-holds/:id/release", h.ReleaseLegalHold)
	writeGroup.DELETE("/legal-holds/:id", h.DeleteLegalHold)
	writeGroup.POST("/compliance-reviews", h.CreateComplianceReview)
	writeGroup.PATCH("/compliance-reviews/:id", h.UpdateComplianceReview)
	writeGroup.POST("/compliance-reviews/:id/finalize", h.FinalizeComplianceReview)
	writeGroup.DELETE("/compliance-reviews/:id", h.DeleteComplianceReview)
}

// -- Legal Hold Handlers --

func (h *Handler) CreateLegalHold(c echo.Context) error {
	var req CreateLegalHoldRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	hold, err := h.svc.CreateLegalHold(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewLegalHoldResponse(hold))
}

func (h *Handler) GetLegalHold(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	hold, err := h.svc.GetLegalHold(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewLegalHoldResponse(hold))
}

func (h *Handler) ListLegalHolds(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := LegalHoldFilter{
		Status:     params.String(c, "status"),
		MatterName: params.String(c, "matter_name"),
		Order:      legalHoldSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.PatientID, err = params.UUID(c, "patient_id"); err != nil {
		return err
	}
	if f.CreatedFrom, err = params.Time(c, "created_from"); err != nil {
		return err
	}
	if f.CreatedTo, err = params.TimeUntil(c, "created_to"); err != nil {
		return err
	}
	holds, total, err := h.svc.ListLegalHolds(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(holds, NewLegalHoldResponse), total, p))
}

func (h *Handler) UpdateLegalHold(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateLegalHoldRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	hold, err := h.svc.UpdateLegalHold(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewLegalHoldResponse(hold))
}

func (h *Handler) ReleaseLegalHold(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	hold, err := h.svc.ReleaseLegalHold(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewLegalHoldResponse(hold))
}

func (h *Handler) DeleteLegalHold(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteLegalHold(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Compliance Review Handlers --

func (h *Handler) CreateComplianceReview(c echo.Context) error {
	var req CreateComplianceReviewRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	rev, err := h.svc.CreateComplianceReview(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewComplianceReviewResponse(rev))
}

func (h *Handler) GetComplianceReview(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	rev, err := h.svc.GetComplianceReview(c.Request().Context(), id, params.IncludeDeleted(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewComplianceReviewResponse(rev))
}

func (h *Handler) ListComplianceReviews(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := ComplianceReviewFilter{
		ReviewType: params.String(c, "review_type"),
		Status:     params.String(c, "status"),
		Order:      complianceReviewSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.LegalHoldID, err = params.UUID(c, "legal_hold_id"); err != nil {
		return err
	}
	if f.ReviewerID, err = params.UUID(c, "reviewer_id"); err != nil {
		return err
	}
	if f.DueFrom, err = params.Time(c, "due_from"); err != nil {
		return err
	}
	if f.DueTo, err = params.TimeUntil(c, "due_to"); err != nil {
		return err
	}
	reviews, total, err := h.svc.ListComplianceReviews(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(reviews, NewComplianceReviewResponse), total, p))
}

func (h *Handler) UpdateComplianceReview(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateComplianceReviewRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	rev, err := h.svc.UpdateComplianceReview(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewComplianceReviewResponse(rev))
}

func (h *Handler) FinalizeComplianceReview(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	rev, err := h.svc.FinalizeComplianceReview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewComplianceReviewResponse(rev))
}

func (h *Handler) DeleteComplianceReview(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteComplianceReview(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Audit Log Handlers --

func auditLogFilter(c echo.Context) (AuditLogFilter, error) {
	var err error
	f := AuditLogFilter{
		ActionType: params.String(c, "action_type"),
		EntityType: params.String(c, "related_entity_type"),
		Order:      auditLogSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return f, err
	}
	if f.UserID, err = params.UUID(c, "user_id"); err != nil {
		return f, err
	}
	if f.EntityID, err = params.UUID(c, "related_entity_id"); err != nil {
		return f, err
	}
	if f.CreatedFrom, err = params.Time(c, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = params.TimeUntil(c, "created_to"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) ListAuditLogs(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f, err := auditLogFilter(c)
	if err != nil {
		return err
	}
	events, total, err := h.svc.ListAuditLogs(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(events, NewAuditLogResponse), total, p))
}

func (h *Handler) ExportAuditLogs(c echo.Context) error {
	f, err := auditLogFilter(c)
	if err != nil {
		return err
	}
	events, err := h.svc.ExportAuditLogs(c.Request().Context(), f)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteAuditWorkbook(&buf, events); err != nil {
		return err
	}
	filename := fmt.Sprintf("audit_log_%s.xlsx", time.Now().UTC().Format("20060102T150405Z"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
