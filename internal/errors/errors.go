package errors

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// ErrValidation reports malformed or out-of-range input.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidation builds a validation error for a field.
func NewValidation(field, message string) *ErrValidation {
	return &ErrValidation{Field: field, Message: message}
}

// ErrDomain reports input that is well-formed but violates an accounting
// invariant, e.g. an entry set that does not balance in the base currency.
type ErrDomain struct {
	Message string
}

func (e *ErrDomain) Error() string {
	return e.Message
}

// NewDomain builds a domain error.
func NewDomain(message string) *ErrDomain {
	return &ErrDomain{Message: message}
}

// ErrNotFound reports a missing currency, account or journal.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// NewNotFound builds a not-found error.
func NewNotFound(entity, key string) *ErrNotFound {
	return &ErrNotFound{Entity: entity, Key: key}
}

// ErrVersionMismatch reports a schema version that differs from the expected one.
type ErrVersionMismatch struct {
	Current  string
	Expected string
}

func (e *ErrVersionMismatch) Error() string {
	return "schema version mismatch: current " + e.Current + ", expected " + e.Expected
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	var v *ErrValidation
	return errors.As(err, &v)
}

// IsDomain reports whether err is (or wraps) a domain error.
func IsDomain(err error) bool {
	var d *ErrDomain
	return errors.As(err, &d)
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	var n *ErrNotFound
	return errors.As(err, &n)
}

// IsVersionMismatch reports whether err is (or wraps) a version mismatch.
func IsVersionMismatch(err error) bool {
	var m *ErrVersionMismatch
	return errors.As(err, &m)
}

// IsTransient reports whether err is a database error worth retrying:
// serialization failure, deadlock, or an invalidated connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		// Class 08: connection exceptions.
		return strings.HasPrefix(string(pqErr.Code), "08")
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
