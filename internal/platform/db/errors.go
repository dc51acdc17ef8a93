package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ehr/admin/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// Classify converts store errors into application errors. A unique-index
// violation is the authoritative duplicate signal when two writers race past
// the same pre-check.
func Classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, entity+" already exists", err)
		case codeForeignKeyViolation:
			return apperr.Wrap(apperr.KindConflict, entity+" references or is referenced by another record", err)
		case codeCheckViolation:
			return apperr.Wrap(apperr.KindValidation, entity+" violates a constraint", err)
		}
	}
	return err
}

// RequireAffected returns NotFound when a write touched no rows.
func RequireAffected(tag pgconn.CommandTag, entity string) error {
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}
