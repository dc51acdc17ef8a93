// Package params reads typed, optional filter values from query strings.
// A parameter that is absent or empty yields nil; a malformed one is a
// validation error naming the parameter.
package params

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/pkg/timefmt"
)

// ID parses the :id path parameter.
func ID(c echo.Context) (uuid.UUID, error) {
	return PathUUID(c, "id")
}

// PathUUID parses a uuid path parameter.
func PathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

func String(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	return &v
}

func UUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a uuid", name)
	}
	return &id, nil
}

func Bool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be true or false", name)
	}
	return &b, nil
}

func Int64(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", name)
	}
	return &n, nil
}

// Time accepts an RFC 3339 timestamp or a bare date (midnight UTC).
// Use it for lower bounds.
func Time(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := timefmt.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a date or RFC 3339 timestamp", name)
	}
	return &t, nil
}

// TimeUntil is Time for inclusive upper bounds: a bare date covers the whole
// day, so it resolves to the last microsecond the database can store.
func TimeUntil(c echo.Context, name string) (*time.Time, error) {
	t, err := Time(c, name)
	if t == nil || err != nil {
		return t, err
	}
	if _, dateErr := time.Parse(timefmt.DateLayout, c.QueryParam(name)); dateErr == nil {
		end := t.AddDate(0, 0, 1).Add(-time.Microsecond)
		return &end, nil
	}
	return t, nil
}

// IncludeDeleted reports whether the caller asked for soft-deleted rows.
func IncludeDeleted(c echo.Context) bool {
	b, _ := strconv.ParseBool(c.QueryParam("include_deleted"))
	return b
}

// Sort returns the raw sort field and direction.
func Sort(c echo.Context) (field, dir string) {
	return c.QueryParam("sort"), c.QueryParam("order")
}

// Bind decodes the request body into v, reporting failures as validation errors.
func Bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
