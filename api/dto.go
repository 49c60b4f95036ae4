/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the internal
  domain model. Decimal money renders as strings to avoid float
  round-tripping in clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
)

// EnrollRequest enrolls a new identity.
type EnrollRequest struct {
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

// ObservationRequest reports one observation. Either an embedding (the
// normal path) or a pre-matched name may be given; ObservedAt is
// RFC3339 and defaults to the server's now.
type ObservationRequest struct {
	Name       string    `json:"name,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	ObservedAt string    `json:"observed_at,omitempty"`
}

// OutcomeDTO is the reconciliation decision for one observation.
type OutcomeDTO struct {
	Result string     `json:"result"` // "unmatched" | "skipped" | "recorded"
	Name   string     `json:"name,omitempty"`
	Status *StatusDTO `json:"status,omitempty"`
}

// StatusDTO is the classified status of a recorded sighting.
type StatusDTO struct {
	Label       string `json:"label"` // e.g. "Late by 12 mins"
	LateMinutes int    `json:"late_minutes,omitempty"`
}

// IdentityDTO lists an enrolled identity.
type IdentityDTO struct {
	Name string `json:"name"`
}

// PayrollDTO is a payroll account snapshot.
type PayrollDTO struct {
	Name       string `json:"name"`
	BaseSalary string `json:"base_salary"`
	Deductions string `json:"deductions"`
	NetSalary  string `json:"net_salary"`
}

// AttendanceEventDTO is one ledger event.
type AttendanceEventDTO struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toOutcomeDTO(o engine.Outcome) OutcomeDTO {
	dto := OutcomeDTO{Result: o.Result.String(), Name: o.Name}
	if o.Result == engine.Recorded {
		dto.Status = &StatusDTO{
			Label:       o.Status.String(),
			LateMinutes: o.Status.LateMinutes,
		}
	}
	return dto
}

func toPayrollDTO(a attendance.PayrollAccount) PayrollDTO {
	return PayrollDTO{
		Name:       a.Name,
		BaseSalary: a.BaseSalary.String(),
		Deductions: a.Deductions.String(),
		NetSalary:  a.NetSalary.String(),
	}
}
