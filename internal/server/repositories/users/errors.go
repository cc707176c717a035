package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is the kind behind every ConflictError.
var ErrConflict = errors.New("unique constraint violated")

// ConflictError reports that a write hit a unique constraint on Field
// ("username" or "email").
type ConflictError struct {
	Op    string
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// classifyUniqueViolation reports which field a PostgreSQL unique_violation
// refers to. ok is false for any other error.
func classifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	c := strings.ToLower(pgErr.ConstraintName)
	switch {
	case c == "users_username_key" || strings.Contains(c, "username"):
		return string(FieldUsername), true
	case c == "users_email_key" || strings.Contains(c, "email"):
		return string(FieldEmail), true
	default:
		return "unique", true
	}
}

// wrapWriteErr turns driver errors from writes into ConflictError or a
// generic db error.
func wrapWriteErr(op string, err error) error {
	if field, ok := classifyUniqueViolation(err); ok {
		return &ConflictError{Op: op, Field: field}
	}
	return fmt.Errorf("db error: %w", err)
}
