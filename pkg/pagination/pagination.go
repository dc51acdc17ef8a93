package pagination

import (
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// InvalidError reports a malformed or out-of-range pagination field.
type InvalidError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s, got %q", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s must be a positive integer, got %q", e.Field, e.Value)
}

// FromContext extracts pagination parameters from the echo context.
// page falls back to 1 when absent or <= 0. limit (or page_size) falls back to
// DefaultLimit only when absent; an explicit value <= 0 is rejected.
func FromContext(c echo.Context) (Params, error) {
	return Parse(c.QueryParam("page"), firstNonEmpty(c.QueryParam("limit"), c.QueryParam("page_size")), DefaultLimit)
}

// Parse builds Params from raw query values using defaultLimit when limit is absent.
func Parse(rawPage, rawLimit string, defaultLimit int) (Params, error) {
	p := Params{Page: 1, Limit: defaultLimit}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}

	if rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil {
			return Params{}, &InvalidError{Field: "page", Value: rawPage}
		}
		if page > 0 {
			p.Page = page
		}
	}

	if rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit <= 0 {
			return Params{}, &InvalidError{Field: "limit", Value: rawLimit}
		}
		p.Limit = limit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	// The row offset must stay representable as a non-negative int.
	if p.Page-1 > math.MaxInt/p.Limit {
		return Params{}, &InvalidError{Field: "page", Value: rawPage, Reason: "is out of range"}
	}
	return p, nil
}

// Offset returns the number of rows to skip for the current page.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pages returns ceil(records/limit), or 0 when limit is not positive.
func Pages(records, limit int) int {
	if limit <= 0 || records <= 0 {
		return 0
	}
	return int(math.Ceil(float64(records) / float64(limit)))
}

// Meta is the pagination block of a list response.
type Meta struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
	Pages   int `json:"pages"`
}

// Response wraps a paginated API response.
type Response[T any] struct {
	Pagination Meta `json:"pagination"`
	Data       []T  `json:"data"`
}

// NewResponse assembles the envelope. data is truncated to the page limit and a
// nil slice is replaced with an empty one so it never serialises as null.
func NewResponse[T any](data []T, total int, p Params) *Response[T] {
	if data == nil {
		data = []T{}
	}
	if p.Limit > 0 && len(data) > p.Limit {
		data = data[:p.Limit]
	}
	return &Response[T]{
		Pagination: Meta{
			Current: p.Page,
			Limit:   p.Limit,
			Records: total,
			Pages:   Pages(total, p.Limit),
		},
		Data: data,
	}
}

// Map converts every element with fn, preserving order.
func Map[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
