/*
Package engine orchestrates identity reconciliation: resolving an
observed embedding to an enrolled identity, committing the first
sighting of the day, classifying it, and applying the payroll effect,
exactly once per identity per day.

PER-OBSERVATION STATE MACHINE:
  Observed -> Matched | Unmatched
  Unmatched: terminal, no effect.
  Matched(name):
    1. Ledger MarkIfFirst(name, today, now)
    2. Already marked -> terminal, idempotent skip
    3. First sighting -> classify status, apply payroll effect,
       append the daily log row, remember name in the seen set

TWO-STEP COMMIT:
  The ledger is written first, the log mirror second. If the process
  dies between the two, the next startup reconciles: the ledger is the
  source of truth and the missing mirror rows are regenerated from its
  events (see Engine.reconcileMirror).

CONCURRENCY:
  Observations normally arrive sequentially from a single capture loop.
  If callers overlap, steps 1-3 are serialized per distinct name by a
  keyed lock, so two racing observations of one identity cannot both
  see "no event yet" and double-deduct. Distinct names do not block
  each other.

SEE ALSO:
  - attendance/store.go: persistence contracts
  - daylog: the daily mirror
  - identity: matcher
*/
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/daylog"
	"github.com/warp/attendance-engine/identity"
)

// DefaultLateFine is the flat deduction for a late arrival, regardless
// of lateness magnitude. A per-minute scale is a policy change, not a
// code change; the amount is configuration.
var DefaultLateFine = decimal.NewFromInt(50)

// Result tags a reconciliation outcome.
type Result int

const (
	// Unmatched: the observation resolved to no enrolled identity.
	Unmatched Result = iota
	// Skipped: the identity was already reconciled today.
	Skipped
	// Recorded: first sighting of the day; effects were applied.
	Recorded
)

func (r Result) String() string {
	switch r {
	case Unmatched:
		return "unmatched"
	case Skipped:
		return "skipped"
	default:
		return "recorded"
	}
}

// Outcome is the combined decision for one observation.
type Outcome struct {
	Result Result
	Name   string
	Status attendance.Status // meaningful only when Result == Recorded
}

// Config tunes the engine.
type Config struct {
	Schedule       attendance.Schedule
	MatchThreshold float64          // zero means identity.DefaultThreshold
	LateFine       *decimal.Decimal // nil means DefaultLateFine; zero is a valid fine
}

// Engine wires the matcher, ledger, payroll, and daily mirror together.
type Engine struct {
	store    attendance.Store
	mirror   *daylog.Mirror
	matcher  identity.Matcher
	schedule attendance.Schedule
	lateFine decimal.Decimal

	// snapshot of enrolled identities for index-based matching;
	// refreshed on enrollment
	snapMu sync.RWMutex
	known  []identity.Identity

	locks nameLocks
}

// New initializes the engine: loads the enrolled identities and
// reconciles the daily mirror against the ledger for the mirror's
// current date. The store's schema and the mirror's file are expected
// to exist already (sqlite.New and daylog.Open handle that).
func New(ctx context.Context, store attendance.Store, mirror *daylog.Mirror, cfg Config) (*Engine, error) {
	lateFine := DefaultLateFine
	if cfg.LateFine != nil {
		lateFine = *cfg.LateFine
	}
	if cfg.Schedule == (attendance.Schedule{}) {
		cfg.Schedule = attendance.DefaultSchedule()
	}

	e := &Engine{
		store:    store,
		mirror:   mirror,
		matcher:  identity.NewMatcher(cfg.MatchThreshold),
		schedule: cfg.Schedule,
		lateFine: lateFine,
		locks:    nameLocks{locks: make(map[string]*sync.Mutex)},
	}

	known, err := store.Identities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load identities: %w", err)
	}
	e.known = known
	log.Printf("[Engine] loaded %d enrolled identities", len(known))

	if err := e.reconcileMirror(ctx, mirror.Date()); err != nil {
		return nil, err
	}
	return e, nil
}

// Known returns the current identity snapshot. The slice is shared;
// callers must not mutate it.
func (e *Engine) Known() []identity.Identity {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.known
}

func (e *Engine) isEnrolled(name string) bool {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	for _, id := range e.known {
		if id.Name == name {
			return true
		}
	}
	return false
}

// SeenToday returns the names already reconciled for the current day.
func (e *Engine) SeenToday() []string {
	return e.mirror.Names()
}

// Enroll adds a new identity and refreshes the matching snapshot.
// Names must be non-empty; duplicates are rejected with no partial
// state.
func (e *Engine) Enroll(ctx context.Context, name string, embedding []float32) error {
	if name == "" {
		return attendance.ErrEmptyName
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding must not be empty")
	}

	if err := e.store.Enroll(ctx, name, embedding); err != nil {
		return err
	}

	e.snapMu.Lock()
	e.known = append(e.known, identity.Identity{Name: name, Embedding: embedding})
	total := len(e.known)
	e.snapMu.Unlock()

	log.Printf("[Engine] enrolled %q (%d identities total)", name, total)
	return nil
}

// ObserveEmbedding resolves an observed embedding against the enrolled
// snapshot and reconciles the match. An embedding whose nearest
// neighbor fails the threshold is Unmatched.
func (e *Engine) ObserveEmbedding(ctx context.Context, embedding []float32, now time.Time) (Outcome, error) {
	match, ok := e.matcher.Best(embedding, e.Known())
	if !ok {
		return Outcome{Result: Unmatched}, nil
	}
	return e.Observe(ctx, match.Name, now)
}

// Observe reconciles a pre-matched identity name at the given moment.
// An empty name (the external loop's "Unknown") is Unmatched, as is any
// name with no enrolled identity: the ledger and payroll only ever hold
// rows for identities that went through Enroll.
func (e *Engine) Observe(ctx context.Context, name string, now time.Time) (Outcome, error) {
	if name == "" || !e.isEnrolled(name) {
		return Outcome{Result: Unmatched}, nil
	}

	// Serialize per name so check-then-insert plus effects stay atomic
	// for re-entrant calls; distinct names proceed independently.
	lock := e.locks.get(name)
	lock.Lock()
	defer lock.Unlock()

	date := attendance.DateOf(now)
	clock := attendance.ClockOf(now)

	// The calendar may have turned since the rollover ticker last fired;
	// rotate now so the seen set and the mirror file belong to the
	// observation's own day.
	if date != e.mirror.Date() {
		if err := e.Rollover(ctx, now); err != nil {
			return Outcome{}, err
		}
	}

	// Seen-today cache: avoids a ledger round-trip on every frame the
	// same face stays in view.
	if e.mirror.Seen(name) {
		return Outcome{Result: Skipped, Name: name}, nil
	}

	inserted, err := e.store.MarkIfFirst(ctx, name, date, clock)
	if err != nil {
		return Outcome{}, err
	}
	if !inserted {
		// Marked on a previous run; make the mirror agree.
		if err := e.mirrorFromLedger(ctx, name, date); err != nil {
			return Outcome{}, err
		}
		log.Printf("[Engine] %s already marked for %s", name, date)
		return Outcome{Result: Skipped, Name: name}, nil
	}

	status := e.schedule.Classify(now)
	if err := e.applyPayrollEffect(ctx, name, status); err != nil {
		return Outcome{}, err
	}

	if err := e.mirror.Append(name, clock, status); err != nil {
		return Outcome{}, err
	}

	log.Printf("[Engine] %s marked at %s with status %s", name, clock, status)
	return Outcome{Result: Recorded, Name: name, Status: status}, nil
}

func (e *Engine) applyPayrollEffect(ctx context.Context, name string, status attendance.Status) error {
	var (
		acct attendance.PayrollAccount
		err  error
	)
	switch status.Code {
	case attendance.StatusLate:
		acct, err = e.store.ApplyDeduction(ctx, name, e.lateFine)
	case attendance.StatusAbsent:
		acct, err = e.store.ApplyAbsentDeduction(ctx, name)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("payroll effect for %s: %w", name, err)
	}
	log.Printf("[Engine] payroll updated for %s: deductions=%s net=%s",
		name, acct.Deductions, acct.NetSalary)
	return nil
}

// Rollover switches the mirror to the calendar day of now. On a date
// change the seen set resets with the new file; the new day's ledger
// events (normally none) are mirrored for completeness.
func (e *Engine) Rollover(ctx context.Context, now time.Time) error {
	date := attendance.DateOf(now)
	if date == e.mirror.Date() {
		return nil
	}
	if err := e.mirror.Rotate(date); err != nil {
		return fmt.Errorf("failed to rotate day log: %w", err)
	}
	log.Printf("[Engine] rolled over day log to %s", date)
	return e.reconcileMirror(ctx, date)
}

// reconcileMirror restores the ledger/mirror invariant for one date:
// every ledger event without a mirror row gets a regenerated row, with
// the status recomputed from the recorded time.
func (e *Engine) reconcileMirror(ctx context.Context, date string) error {
	events, err := e.store.EventsForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to load ledger events for %s: %w", date, err)
	}

	for _, ev := range events {
		if e.mirror.Seen(ev.Name) {
			continue
		}
		status, err := e.schedule.ClassifyClock(ev.Time)
		if err != nil {
			return fmt.Errorf("bad ledger time for %s: %w", ev.Name, err)
		}
		if err := e.mirror.Append(ev.Name, ev.Time, status); err != nil {
			return err
		}
		log.Printf("[Engine] regenerated day log row for %s (%s)", ev.Name, date)
	}
	return nil
}

// mirrorFromLedger appends the mirror row for one name from its ledger
// event, used when the ledger already has today's mark but the mirror
// does not (crash between the two writes).
func (e *Engine) mirrorFromLedger(ctx context.Context, name, date string) error {
	events, err := e.store.EventsForDate(ctx, date)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.Name != name {
			continue
		}
		status, err := e.schedule.ClassifyClock(ev.Time)
		if err != nil {
			return err
		}
		return e.mirror.Append(ev.Name, ev.Time, status)
	}
	return nil
}

// =============================================================================
// PER-NAME LOCKS
// =============================================================================

type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *nameLocks) get(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[name] = lock
	}
	return lock
}
