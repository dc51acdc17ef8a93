package identity

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

func newTestHandler() (*Handler, *memPatientRepo, *echo.Echo) {
	svc, repo, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	return NewHandler(svc), repo, e
}

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

func TestHandler_CreatePatient(t *testing.T) {
	h, _, e := newTestHandler()
	org := uuid.New()

	body := `{"organization_id":"` + org.String() + `","mrn":"MRN-9","first_name":"Ada","last_name":"Lovelace","birth_date":"1990-04-12"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/api/v1/patients", body), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["birth_date"] != "1990-04-12" || out["mrn"] != "MRN-9" {
		t.Errorf("unexpected body %v", out)
	}
	for _, key := range []string{"gender", "phone", "email", "deleted_at"} {
		if v, ok := out[key]; !ok || v != nil {
			t.Errorf("expected %s to be present and null, got %v (present=%v)", key, v, ok)
		}
	}
}

func TestHandler_ListPatients_InvalidDate(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodGet, "/api/v1/patients?birth_date_from=yesterday", ""), rec)

	err := h.ListPatients(c)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRoutes_PatientLifecycle(t *testing.T) {
	h, repo, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))
	org := uuid.New()

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	create := func(mrn string) *httptest.ResponseRecorder {
		return do(newRequest(http.MethodPost, "/api/v1/patients",
			`{"organization_id":"`+org.String()+`","mrn":"`+mrn+`","first_name":"Grace","last_name":"Hopper"}`))
	}

	rec := create("A1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created PatientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	if rec := create("A1"); rec.Code != http.StatusConflict {
		t.Errorf("duplicate mrn: expected 409, got %d", rec.Code)
	}

	// Clinicians read but never write.
	if rec := do(newRequest(http.MethodDelete, "/api/v1/patients/"+created.ID.String(), "", auth.RoleClinician)); rec.Code != http.StatusForbidden {
		t.Errorf("clinician delete: expected 403, got %d", rec.Code)
	}
	if rec := do(newRequest(http.MethodGet, "/api/v1/patients?name=hop", "", auth.RoleClinician)); rec.Code != http.StatusOK ||
		!strings.Contains(rec.Body.String(), `"records":1`) {
		t.Errorf("clinician list: got %d %s", rec.Code, rec.Body)
	}

	rec = do(newRequest(http.MethodPatch, "/api/v1/patients/"+created.ID.String(), `{"gender":"female","email":null}`))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"gender":"female"`) {
		t.Errorf("patch: got %d %s", rec.Code, rec.Body)
	}
	if rec := do(newRequest(http.MethodPatch, "/api/v1/patients/"+created.ID.String(), `{"last_name":null}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("null required field: expected 400, got %d", rec.Code)
	}

	repo.blocked[created.ID] = "upcoming appointment"
	if rec := do(newRequest(http.MethodDelete, "/api/v1/patients/"+created.ID.String(), "")); rec.Code != http.StatusConflict {
		t.Errorf("blocked delete: expected 409, got %d", rec.Code)
	}
	delete(repo.blocked, created.ID)

	if rec := do(newRequest(http.MethodDelete, "/api/v1/patients/"+created.ID.String(), "")); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec := do(newRequest(http.MethodGet, "/api/v1/patients/"+created.ID.String(), "")); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: expected 404, got %d", rec.Code)
	}
	if rec := do(newRequest(http.MethodGet, "/api/v1/patients/"+created.ID.String()+"?include_deleted=true", "")); rec.Code != http.StatusForbidden {
		t.Errorf("registrar include_deleted: expected 403, got %d", rec.Code)
	}
	rec = do(newRequest(http.MethodGet, "/api/v1/patients/"+created.ID.String()+"?include_deleted=true", "", auth.RoleAuditor))
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), `"deleted_at":null`) {
		t.Errorf("auditor include_deleted: got %d %s", rec.Code, rec.Body)
	}
}
