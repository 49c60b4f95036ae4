/*
store.go - Persistence interfaces for the attendance domain

PURPOSE:
  Defines the interface between the reconciliation engine and the
  database. Implementations live in store/sqlite (production) and
  store/memory (tests/dev).

CONTRACTS:
  IdentityStore: Enrollment writes the face row and the payroll account
                 together; a duplicate name leaves no partial state.
  Ledger:        MarkIfFirst is the dedup primitive. Check-then-insert
                 is a single logical transaction per (name, date); two
                 racing observers of the same name must not both see
                 "not marked yet".
  Payroll:       Deductions only ever add. A missing account surfaces
                 ErrNotFound, it is never created on the deduction path.
*/
package attendance

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/identity"
)

// IdentityStore persists enrolled identities.
type IdentityStore interface {
	// Enroll adds a (name, embedding) pair and creates the payroll
	// account with default values if absent, atomically.
	// Returns a DuplicateNameError if name already exists.
	Enroll(ctx context.Context, name string, embedding []float32) error

	// Identities returns all enrolled identities in a stable order.
	// Records whose embedding blob fails to decode are skipped and
	// logged, not fatal to the load.
	Identities(ctx context.Context) ([]identity.Identity, error)
}

// Ledger persists attendance events with the one-per-day invariant.
type Ledger interface {
	// MarkIfFirst inserts the event for (name, date) unless one already
	// exists. Returns true when this call created the event, meaning
	// the caller should proceed with payroll and log effects.
	MarkIfFirst(ctx context.Context, name, date, clock string) (bool, error)

	// EventsForDate returns all events for a calendar day in insert order.
	EventsForDate(ctx context.Context, date string) ([]AttendanceEvent, error)
}

// Payroll persists per-identity salary state.
type Payroll interface {
	// ApplyDeduction adds amount to deductions, recomputes net salary,
	// and returns the updated account.
	ApplyDeduction(ctx context.Context, name string, amount decimal.Decimal) (PayrollAccount, error)

	// ApplyAbsentDeduction deducts one working day of pro-rated pay
	// (base_salary / 30) and returns the updated account.
	ApplyAbsentDeduction(ctx context.Context, name string) (PayrollAccount, error)

	// Account returns the payroll account for name, or ErrNotFound.
	Account(ctx context.Context, name string) (PayrollAccount, error)
}

// Store aggregates the three persistence concerns. The SQLite store
// implements all of them over one database handle.
type Store interface {
	IdentityStore
	Ledger
	Payroll
}
