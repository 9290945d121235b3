package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/matsen/userctl/internal/user"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = pq.ErrorCode("23505")

// DuplicateKeyError reports that an insert or update hit a unique constraint.
// errors.Is(err, user.ErrDuplicate) reports true for it.
type DuplicateKeyError struct {
	Field string // Offending column, empty when the driver does not report it
	Err   error  // Underlying driver error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("duplicate key: %v", e.Err)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// Is makes the error match user.ErrDuplicate.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == user.ErrDuplicate
}

var (
	sqliteUniqueColumn = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)
	pgDetailColumn     = regexp.MustCompile(`^Key \((\w+)\)=`)
)

// classify turns driver-level unique violations into *DuplicateKeyError.
// Every other error is returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && sqliteUniqueColumn.MatchString(se.Error())) {
			var field string
			if m := sqliteUniqueColumn.FindStringSubmatch(se.Error()); m != nil {
				field = m[1]
			}
			return &DuplicateKeyError{Field: field, Err: err}
		}
		return err
	}

	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == pgUniqueViolation {
		return &DuplicateKeyError{Field: postgresColumn(pe), Err: err}
	}

	return err
}

// postgresColumn extracts the column from a unique violation, preferring the
// DETAIL line and falling back to the default <table>_<column>_key constraint name.
func postgresColumn(pe *pq.Error) string {
	if m := pgDetailColumn.FindStringSubmatch(pe.Detail); m != nil {
		return m[1]
	}
	if c := pe.Constraint; strings.HasPrefix(c, "users_") && strings.HasSuffix(c, "_key") {
		return strings.TrimSuffix(strings.TrimPrefix(c, "users_"), "_key")
	}
	return ""
}
