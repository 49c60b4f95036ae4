// Package memory provides an in-memory attendance.Store for tests/dev.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/identity"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu         sync.RWMutex
	identities []identity.Identity
	events     []attendance.AttendanceEvent
	marked     map[dayKey]bool
	payroll    map[string]attendance.PayrollAccount
	nextID     int64
}

type dayKey struct {
	Name string
	Date string
}

var _ attendance.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		marked:  make(map[dayKey]bool),
		payroll: make(map[string]attendance.PayrollAccount),
		nextID:  1,
	}
}

func (s *Store) Enroll(_ context.Context, name string, embedding []float32) error {
	if name == "" {
		return attendance.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.identities {
		if id.Name == name {
			return &attendance.DuplicateNameError{Name: name}
		}
	}

	emb := make([]float32, len(embedding))
	copy(emb, embedding)
	s.identities = append(s.identities, identity.Identity{Name: name, Embedding: emb})

	if _, ok := s.payroll[name]; !ok {
		s.payroll[name] = attendance.PayrollAccount{
			Name:       name,
			BaseSalary: attendance.DefaultBaseSalary,
			Deductions: decimal.Zero,
			NetSalary:  attendance.DefaultBaseSalary,
		}
	}
	return nil
}

func (s *Store) Identities(_ context.Context) ([]identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]identity.Identity, len(s.identities))
	copy(result, s.identities)
	return result, nil
}

func (s *Store) MarkIfFirst(_ context.Context, name, date, clock string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := dayKey{Name: name, Date: date}
	if s.marked[k] {
		return false, nil
	}
	s.marked[k] = true
	s.events = append(s.events, attendance.AttendanceEvent{
		ID:   s.nextID,
		Name: name,
		Date: date,
		Time: clock,
	})
	s.nextID++
	return true, nil
}

func (s *Store) EventsForDate(_ context.Context, date string) ([]attendance.AttendanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []attendance.AttendanceEvent
	for _, e := range s.events {
		if e.Date == date {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *Store) ApplyDeduction(_ context.Context, name string, amount decimal.Decimal) (attendance.PayrollAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deductLocked(name, amount)
}

func (s *Store) ApplyAbsentDeduction(_ context.Context, name string) (attendance.PayrollAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.payroll[name]
	if !ok {
		return attendance.PayrollAccount{}, &attendance.NotFoundError{Name: name}
	}
	return s.deductLocked(name, acct.AbsentDeduction())
}

func (s *Store) deductLocked(name string, amount decimal.Decimal) (attendance.PayrollAccount, error) {
	acct, ok := s.payroll[name]
	if !ok {
		return attendance.PayrollAccount{}, &attendance.NotFoundError{Name: name}
	}
	acct.Deductions = acct.Deductions.Add(amount)
	acct.NetSalary = acct.BaseSalary.Sub(acct.Deductions)
	s.payroll[name] = acct
	return acct, nil
}

func (s *Store) Account(_ context.Context, name string) (attendance.PayrollAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.payroll[name]
	if !ok {
		return attendance.PayrollAccount{}, &attendance.NotFoundError{Name: name}
	}
	return acct, nil
}
