package notification

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/params"
	"github.com/ehr/admin/pkg/pagination"
)

type Handler struct {
	svc    *Service
	stream echo.HandlerFunc
}

// NewHandler serves the inbox endpoints. stream handles the websocket
// upgrade for GET /notifications/stream and may be nil.
func NewHandler(svc *Service, stream echo.HandlerFunc) *Handler {
	return &Handler{svc: svc, stream: stream}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Inbox endpoints – every authenticated role, scoped to the caller
	inbox := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleComplianceOfficer, auth.RoleRegistrar, auth.RoleClinician, auth.RoleAuditor,
	))
	inbox.GET("/notifications", h.List)
	if h.stream != nil {
		inbox.GET("/notifications/stream", h.stream)
	}
	inbox.GET("/notifications/:id", h.Get)
	inbox.POST("/notifications/:id/read", h.MarkRead)
	inbox.DELETE("/notifications/:id", h.Delete)

	// Write endpoints – admin only
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	writeGroup.POST("/notifications", h.Create)
	writeGroup.PATCH("/notifications/:id", h.Update)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateNotificationRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	n, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewNotificationResponse(n))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewNotificationResponse(n))
}

func (h *Handler) List(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := NotificationFilter{
		Category: params.String(c, "category"),
		Order:    notificationSort.Resolve(params.Sort(c)),
	}
	if f.OrganizationID, err = params.UUID(c, "organization_id"); err != nil {
		return err
	}
	if f.UserID, err = params.UUID(c, "user_id"); err != nil {
		return err
	}
	if f.Unread, err = params.Bool(c, "unread"); err != nil {
		return err
	}
	if f.CreatedFrom, err = params.Time(c, "created_from"); err != nil {
		return err
	}
	if f.CreatedTo, err = params.TimeUntil(c, "created_to"); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Map(items, NewNotificationResponse), total, p))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	var req UpdateNotificationRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	n, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewNotificationResponse(n))
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := params.ID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.MarkRead(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewNotificationResponse(n))
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
