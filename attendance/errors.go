/*
errors.go - Centralized error types for the attendance domain

PURPOSE:
  All domain error types in one place. Storage implementations wrap
  database-level failures into these so callers can branch with
  errors.Is / errors.As without knowing the backend.

ERROR CATEGORIES:
  1. Enrollment errors - duplicate names
  2. Payroll errors    - missing accounts during deductions

USAGE:
    if errors.Is(err, attendance.ErrDuplicateName) {
        // enrollment rejected, nothing was written
    }
*/
package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when enrolling a name that already
	// exists. Enrollment is all-or-nothing: neither the face row nor a
	// payroll account is created on rejection.
	ErrDuplicateName = errors.New("identity name already enrolled")

	// ErrNotFound is returned when a deduction targets a payroll account
	// that does not exist. Accounts are created at enrollment only;
	// deductions never create them implicitly.
	ErrNotFound = errors.New("payroll account not found")

	// ErrEmptyName is returned for blank enrollment names.
	ErrEmptyName = errors.New("identity name must not be empty")
)

// DuplicateNameError carries the rejected name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("identity %q already enrolled", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// NotFoundError carries the name whose payroll account is missing.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("payroll account for %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
