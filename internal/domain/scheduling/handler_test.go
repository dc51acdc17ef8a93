package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/auth"
)

func newRequest(method, target, body string, roles ...string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if len(roles) == 0 {
		roles = []string{auth.RoleRegistrar}
	}
	return req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: uuid.New(), Roles: roles}))
}

func TestRoutes_AppointmentLifecycle(t *testing.T) {
	svc, repo, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	org := uuid.New()
	patient := repo.addPatient(org)
	body := `{"organization_id":"` + org.String() + `","patient_id":"` + patient.String() +
		`","start_time":"2026-03-02T09:00:00Z","end_time":"2026-03-02T09:30:00Z"}`

	if rec := do(newRequest(http.MethodPost, "/api/v1/appointments", body, auth.RoleClinician)); rec.Code != http.StatusForbidden {
		t.Errorf("clinician create: expected 403, got %d", rec.Code)
	}
	rec := do(newRequest(http.MethodPost, "/api/v1/appointments", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created AppointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.StartTime != "2026-03-02T09:00:00.000Z" || created.CancelledAt != nil {
		t.Errorf("unexpected body %s", rec.Body)
	}

	bad := strings.Replace(body, "09:30:00Z", "08:30:00Z", 1)
	if rec := do(newRequest(http.MethodPost, "/api/v1/appointments", bad)); rec.Code != http.StatusBadRequest {
		t.Errorf("inverted window: expected 400, got %d", rec.Code)
	}

	rec = do(newRequest(http.MethodGet, "/api/v1/appointments?patient_id="+patient.String()+"&start_from=2026-03-02", "", auth.RoleClinician))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"records":1`) {
		t.Errorf("list: got %d %s", rec.Code, rec.Body)
	}

	path := "/api/v1/appointments/" + created.ID.String()
	rec = do(newRequest(http.MethodPost, path+"/cancel", `{"reason":"weather"}`))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"cancelled"`) {
		t.Errorf("cancel: got %d %s", rec.Code, rec.Body)
	}
	if rec := do(newRequest(http.MethodPost, path+"/cancel", `{"reason":"weather"}`)); rec.Code != http.StatusConflict {
		t.Errorf("second cancel: expected 409, got %d", rec.Code)
	}

	if rec := do(newRequest(http.MethodDelete, path, "")); rec.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", rec.Code)
	}
	if rec := do(newRequest(http.MethodGet, path, "")); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: expected 404, got %d", rec.Code)
	}
}
