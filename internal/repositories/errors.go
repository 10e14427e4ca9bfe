package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrDuplicateMark indicates the user already holds the same like or mark on the entity.
	ErrDuplicateMark = errors.New("mark already exists")
	// ErrUnexpectedRowCount indicates a by-id lookup matched more than one row.
	ErrUnexpectedRowCount = errors.New("unexpected number of rows")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps PostgreSQL constraint violations onto repository sentinels.
// onUnique is returned for unique violations so callers can choose between
// ErrConflict and ErrDuplicateMark.
func translate(err error, onUnique error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", action, onUnique)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", action, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

// exactlyOne returns the single element of items. An empty slice is reported as
// ErrNotFound and more than one element as ErrUnexpectedRowCount.
func exactlyOne[T any](items []T, what string) (T, error) {
	var zero T
	switch len(items) {
	case 0:
		return zero, fmt.Errorf("%s: %w", what, ErrNotFound)
	case 1:
		return items[0], nil
	default:
		return zero, fmt.Errorf("%s: got %d rows: %w", what, len(items), ErrUnexpectedRowCount)
	}
}
