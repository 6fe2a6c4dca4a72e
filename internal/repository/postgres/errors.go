package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"album/internal/domain"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = foreign_key_violation
		return pgErr.Code == "23503"
	}
	return false
}

// IsPgInvalidTextError checks for a malformed value such as a non-UUID id
func IsPgInvalidTextError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 22P02 = invalid_text_representation
		return pgErr.Code == "22P02"
	}
	return false
}

// IsValidID reports whether id can be compared against a uuid column.
// A malformed id sent to Postgres fails the statement and aborts the
// enclosing transaction, so callers check first and skip the query.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// WrapError classifies a failed statement. Errors the server answered with
// (constraint and data errors) are returned as is; anything else is a
// transport or connection failure and becomes a DependencyError.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || IsPgNoRowsError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return wrapDependency(err)
}

func wrapDependency(err error) error {
	var depErr *domain.DependencyError
	if errors.As(err, &depErr) {
		return err
	}
	return &domain.DependencyError{Dependency: "database", Err: err}
}
