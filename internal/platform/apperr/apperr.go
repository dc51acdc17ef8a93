// Package apperr defines the error kinds every service returns and the single
// place where they are translated into HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/pagination"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of err. Pagination and null-field decoding errors are
// reported as validation errors; anything unclassified is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	var pe *pagination.InvalidError
	if errors.As(err, &pe) {
		return KindValidation
	}
	var ne *optional.NullError
	if errors.As(err, &ne) {
		return KindValidation
	}
	return KindInternal
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type body struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPErrorHandler renders application errors and echo HTTP errors as
// {"error": {"code", "message"}}. Internal error details are logged, not returned.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var b body
		status := http.StatusInternalServerError

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			status = he.Code
			b.Error.Code = http.StatusText(he.Code)
			b.Error.Message = fmt.Sprintf("%v", he.Message)
		default:
			kind := KindOf(err)
			status = Status(kind)
			b.Error.Code = string(kind)
			b.Error.Message = err.Error()
			if kind == KindInternal {
				rid, _ := c.Get("request_id").(string)
				logger.Error().Err(err).Str("request_id", rid).Msg("unhandled error")
				b.Error.Message = "internal server error"
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, b)
	}
}
