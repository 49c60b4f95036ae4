/*
Package attendance defines the domain model for the attendance and
payroll ledger: events, payroll accounts, the time-based status
classifier, and the storage interfaces the reconciliation engine
depends on.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceEvent: One confirmed first-sighting per (name, date)
  - PayrollAccount:  Running salary state, decimal-precise
  - Date/Clock layouts: The TEXT formats the ledger persists

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for money, never float arithmetic
  2. One event per day: the (name, date) pair is unique by construction
  3. Monotonic deductions: reconciliation only ever adds

SEE ALSO:
  - status.go: Sighting-time classification
  - store.go:  Persistence interfaces
  - errors.go: Domain errors
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Persisted text layouts for calendar days and times of day.
// These match the ledger schema (date TEXT 'YYYY-MM-DD', time TEXT 'HH:MM:SS')
// and the daily log file columns.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// DateOf formats a moment as the ledger's calendar-day key.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// ClockOf formats a moment as the ledger's time-of-day value.
func ClockOf(t time.Time) string { return t.Format(ClockLayout) }

// AttendanceEvent records the first confirmed sighting of an identity
// on a calendar day. Events are created once and never updated or
// deleted by the reconciliation path.
type AttendanceEvent struct {
	ID   int64
	Name string
	Date string // DateLayout
	Time string // ClockLayout
}

// DefaultBaseSalary is the salary assigned to payroll accounts created
// at enrollment, before any explicit adjustment.
var DefaultBaseSalary = decimal.NewFromInt(60000)

// WorkingDaysPerMonth prorates one day of pay for absent deductions.
var WorkingDaysPerMonth = decimal.NewFromInt(30)

// PayrollAccount is the running salary state for one identity.
//
// INVARIANT: Deductions never decreases through reconciliation; only an
// out-of-scope payroll-cycle rollover could reset it.
// INVARIANT: NetSalary = BaseSalary - Deductions.
type PayrollAccount struct {
	Name       string
	BaseSalary decimal.Decimal
	Deductions decimal.Decimal
	NetSalary  decimal.Decimal
}

// AbsentDeduction is one working day of pro-rated pay.
func (a PayrollAccount) AbsentDeduction() decimal.Decimal {
	return a.BaseSalary.Div(WorkingDaysPerMonth)
}
