package px

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/n-r-w/uow"
	"github.com/samber/lo"
)

// Helpers for working with Postgres errors.
// The pgerrcode package contains Postgres error codes and many useful functions like IsIntegrityConstraintViolation.
// If something is missing there, it is added to this file.
// https://www.postgresql.org/docs/16/errcodes-appendix.html

// ErrorCode matches *pgconn.PgError with one of the given SQLSTATE codes.
// Use it in uow.Transactional rollback rules.
func ErrorCode(codes ...string) uow.ErrorMatcher {
	return uow.ErrorMatcherFunc(func(err error) bool {
		pgErr, ok := toPgError(err)
		return ok && lo.Contains(codes, pgErr.Code)
	})
}

// ErrorClass matches *pgconn.PgError whose SQLSTATE belongs to the class, e.g. pgerrcode.IsIntegrityConstraintViolation.
func ErrorClass(isClass func(code string) bool) uow.ErrorMatcher {
	return uow.ErrorMatcherFunc(func(err error) bool {
		pgErr, ok := toPgError(err)
		return ok && isClass(pgErr.Code)
	})
}

// UniqueViolation matches unique constraint violations.
func UniqueViolation() uow.ErrorMatcher {
	return ErrorCode(pgerrcode.UniqueViolation)
}

// ForeignKeyViolation matches foreign key constraint violations.
func ForeignKeyViolation() uow.ErrorMatcher {
	return ErrorCode(pgerrcode.ForeignKeyViolation)
}

// SerializationFailure matches serialization failures of repeatable read and serializable transactions.
func SerializationFailure() uow.ErrorMatcher {
	return ErrorCode(pgerrcode.SerializationFailure)
}

// DeadlockDetected matches deadlocks.
func DeadlockDetected() uow.ErrorMatcher {
	return ErrorCode(pgerrcode.DeadlockDetected)
}

// NoRows matches "no rows" errors.
func NoRows() uow.ErrorMatcher {
	return uow.ErrorMatcherFunc(IsNoRows)
}

// IsNoRows checks if the error is a "no rows" error.
func IsNoRows(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}

	if pgErr, ok := toPgError(err); ok {
		if pgErr.Code == pgerrcode.NoDataFound {
			return true
		}
	}
	return false
}

// IsUniqueViolation checks if the error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return UniqueViolation().MatchError(err)
}

// IsForeignKeyViolation checks if the error is a foreign key constraint violation.
func IsForeignKeyViolation(err error) bool {
	return ForeignKeyViolation().MatchError(err)
}

func toPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
