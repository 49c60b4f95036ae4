/*
Package sqlite provides the SQLite-backed implementation of the
attendance storage interfaces.

INTERFACES IMPLEMENTED:
  attendance.IdentityStore: Enrollment and identity loading
  attendance.Ledger:        Per-day attendance events
  attendance.Payroll:       Salary state and deductions

KEY TABLES:
  faces:      (id, name UNIQUE, embedding BLOB) - raw little-endian
              float32 vectors, length fixed by the external model
  payroll:    (name PK, base_salary, deductions, net_salary)
  attendance: (id, name, date 'YYYY-MM-DD', time 'HH:MM:SS')

INDEXES:
  idx_attendance_name_date: UNIQUE on (name, date). This backs the core
  dedup guarantee - at most one attendance event per identity per day -
  at the schema level, so MarkIfFirst stays correct even if a second
  process writes to the same file.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process; the unique
  index covers cross-process races.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/identity"
)

// Store implements all attendance storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ attendance.Store = (*Store)(nil)

// New creates a SQLite store at the given path and ensures the schema
// exists. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Enrolled identities
	CREATE TABLE IF NOT EXISTS faces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE,
		embedding BLOB
	);

	-- Running salary state, one row per identity
	CREATE TABLE IF NOT EXISTS payroll (
		name TEXT PRIMARY KEY,
		base_salary REAL DEFAULT 60000,
		deductions REAL DEFAULT 0,
		net_salary REAL DEFAULT 60000
	);

	-- One confirmed first-sighting per identity per calendar day
	CREATE TABLE IF NOT EXISTS attendance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		date TEXT,
		time TEXT
	);

	-- CRITICAL: the dedup invariant. An identity cannot have two
	-- attendance events on the same day.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_name_date
		ON attendance(name, date);

	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// IDENTITY STORE (attendance.IdentityStore interface)
// =============================================================================

// Enroll inserts the face row and, in the same transaction, creates the
// payroll account with default values if one does not already exist.
// A duplicate name rolls everything back and returns DuplicateNameError.
func (s *Store) Enroll(ctx context.Context, name string, embedding []float32) error {
	if name == "" {
		return attendance.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO faces (name, embedding) VALUES (?, ?)",
		name, identity.EncodeEmbedding(embedding),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &attendance.DuplicateNameError{Name: name}
		}
		return fmt.Errorf("failed to insert face: %w", err)
	}

	// Create-if-absent, so re-enrollment after a payroll-only wipe is safe.
	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO payroll (name) VALUES (?)",
		name,
	)
	if err != nil {
		return fmt.Errorf("failed to create payroll account: %w", err)
	}

	return tx.Commit()
}

// Identities returns all enrolled identities ordered by enrollment.
// A record whose embedding blob fails to decode is logged and skipped;
// the rest of the load proceeds.
func (s *Store) Identities(ctx context.Context) ([]identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, embedding FROM faces ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query faces: %w", err)
	}
	defer rows.Close()

	var identities []identity.Identity
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan face: %w", err)
		}
		embedding, err := identity.DecodeEmbedding(blob)
		if err != nil {
			log.Printf("[Store] skipping corrupt face record %q: %v", name, err)
			continue
		}
		identities = append(identities, identity.Identity{Name: name, Embedding: embedding})
	}

	return identities, rows.Err()
}

// =============================================================================
// ATTENDANCE LEDGER (attendance.Ledger interface)
// =============================================================================

// MarkIfFirst inserts the attendance event for (name, date) unless one
// already exists. The unique index makes the check-then-insert atomic;
// INSERT OR IGNORE reports whether this call created the row.
func (s *Store) MarkIfFirst(ctx context.Context, name, date, clock string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO attendance (name, date, time) VALUES (?, ?, ?)",
		name, date, clock,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark attendance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EventsForDate returns the day's events in append order.
func (s *Store) EventsForDate(ctx context.Context, date string) ([]attendance.AttendanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, date, time FROM attendance WHERE date = ? ORDER BY id",
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var events []attendance.AttendanceEvent
	for rows.Next() {
		var e attendance.AttendanceEvent
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Time); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// =============================================================================
// PAYROLL (attendance.Payroll interface)
// =============================================================================

// ApplyDeduction adds amount to deductions and recomputes net salary in
// one statement. The recompute uses the post-update deductions, so the
// two columns cannot drift apart.
func (s *Store) ApplyDeduction(ctx context.Context, name string, amount decimal.Decimal) (attendance.PayrollAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payroll
		SET deductions = deductions + ?,
		    net_salary = base_salary - (deductions + ?)
		WHERE name = ?`,
		amount.InexactFloat64(), amount.InexactFloat64(), name,
	)
	if err != nil {
		return attendance.PayrollAccount{}, fmt.Errorf("failed to apply deduction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return attendance.PayrollAccount{}, err
	} else if n == 0 {
		return attendance.PayrollAccount{}, &attendance.NotFoundError{Name: name}
	}

	return s.accountLocked(ctx, name)
}

// ApplyAbsentDeduction deducts one working day of pro-rated pay,
// computed from the account's own base salary.
func (s *Store) ApplyAbsentDeduction(ctx context.Context, name string) (attendance.PayrollAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payroll
		SET deductions = deductions + base_salary / 30.0,
		    net_salary = base_salary - (deductions + base_salary / 30.0)
		WHERE name = ?`,
		name,
	)
	if err != nil {
		return attendance.PayrollAccount{}, fmt.Errorf("failed to apply absent deduction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return attendance.PayrollAccount{}, err
	} else if n == 0 {
		return attendance.PayrollAccount{}, &attendance.NotFoundError{Name: name}
	}

	return s.accountLocked(ctx, name)
}

// Account returns the payroll account for name.
func (s *Store) Account(ctx context.Context, name string) (attendance.PayrollAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(ctx, name)
}

func (s *Store) accountLocked(ctx context.Context, name string) (attendance.PayrollAccount, error) {
	var acct attendance.PayrollAccount
	var base, deductions, net float64

	err := s.db.QueryRowContext(ctx,
		"SELECT name, base_salary, deductions, net_salary FROM payroll WHERE name = ?",
		name,
	).Scan(&acct.Name, &base, &deductions, &net)

	if err == sql.ErrNoRows {
		return attendance.PayrollAccount{}, &attendance.NotFoundError{Name: name}
	}
	if err != nil {
		return attendance.PayrollAccount{}, fmt.Errorf("failed to load payroll account: %w", err)
	}

	acct.BaseSalary = decimal.NewFromFloat(base)
	acct.Deductions = decimal.NewFromFloat(deductions)
	acct.NetSalary = decimal.NewFromFloat(net)
	return acct, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
