package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var embedding = []float32{0.1, 0.2, 0.3, 0.4}

// =============================================================================
// ENROLLMENT TESTS
// =============================================================================

func TestEnroll_CreatesPayrollAccountWithDefaults(t *testing.T) {
	// GIVEN: A fresh store
	// WHEN: Enrolling a new identity
	// THEN: The payroll account exists with the default base salary

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enroll(ctx, "asha", embedding))

	acct, err := store.Account(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, acct.BaseSalary.Equal(decimal.NewFromInt(60000)))
	assert.True(t, acct.Deductions.IsZero())
	assert.True(t, acct.NetSalary.Equal(decimal.NewFromInt(60000)))
}

func TestEnroll_DuplicateName_NoPartialState(t *testing.T) {
	// GIVEN: An enrolled identity with accumulated deductions
	// WHEN: Enrolling the same name again
	// THEN: DuplicateName is returned and neither the face list nor the
	// payroll account changed

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enroll(ctx, "asha", embedding))
	_, err := store.ApplyDeduction(ctx, "asha", decimal.NewFromInt(50))
	require.NoError(t, err)

	err = store.Enroll(ctx, "asha", []float32{9, 9, 9, 9})
	assert.ErrorIs(t, err, attendance.ErrDuplicateName)

	var dup *attendance.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "asha", dup.Name)

	ids, err := store.Identities(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, embedding, ids[0].Embedding, "original embedding untouched")

	acct, err := store.Account(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, acct.Deductions.Equal(decimal.NewFromInt(50)), "deductions untouched")
}

func TestEnroll_EmptyNameRejected(t *testing.T) {
	store := newTestStore(t)
	err := store.Enroll(context.Background(), "", embedding)
	assert.ErrorIs(t, err, attendance.ErrEmptyName)
}

func TestIdentities_SkipsCorruptRecord(t *testing.T) {
	// GIVEN: One valid face row and one whose embedding blob is torn
	// WHEN: Loading identities
	// THEN: The corrupt record is skipped, the valid one loads

	dir := t.TempDir()
	path := filepath.Join(dir, "attendance.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Enroll(ctx, "asha", embedding))

	// Corrupt a second record through a separate connection.
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.Exec(
		"INSERT INTO faces (name, embedding) VALUES (?, ?)",
		"borys", []byte{1, 2, 3},
	)
	require.NoError(t, err)

	ids, err := store.Identities(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "asha", ids[0].Name)
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestMarkIfFirst_Idempotent(t *testing.T) {
	// GIVEN: A first sighting already recorded for today
	// WHEN: Marking the same identity again, later the same day
	// THEN: The second call reports "not first" and the original event
	// is untouched

	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.MarkIfFirst(ctx, "asha", "2026-09-01", "09:55:00")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.MarkIfFirst(ctx, "asha", "2026-09-01", "14:00:00")
	require.NoError(t, err)
	assert.False(t, inserted)

	events, err := store.EventsForDate(ctx, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "09:55:00", events[0].Time, "first sighting time preserved")
}

func TestMarkIfFirst_IndependentAcrossDaysAndNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, mark := range []struct{ name, date string }{
		{"asha", "2026-09-01"},
		{"borys", "2026-09-01"},
		{"asha", "2026-09-02"},
	} {
		inserted, err := store.MarkIfFirst(ctx, mark.name, mark.date, "10:00:00")
		require.NoError(t, err)
		assert.True(t, inserted, "%s on %s should be a first sighting", mark.name, mark.date)
	}

	events, err := store.EventsForDate(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

// =============================================================================
// PAYROLL TESTS
// =============================================================================

func TestApplyDeduction_MonotonicAndNetRecomputed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enroll(ctx, "asha", embedding))

	acct, err := store.ApplyDeduction(ctx, "asha", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, acct.Deductions.Equal(decimal.NewFromInt(50)))
	assert.True(t, acct.NetSalary.Equal(decimal.NewFromInt(59950)))

	acct, err = store.ApplyDeduction(ctx, "asha", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, acct.Deductions.Equal(decimal.NewFromInt(100)))
	assert.True(t, acct.NetSalary.Equal(decimal.NewFromInt(59900)))
}

func TestApplyAbsentDeduction_OneProRatedDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enroll(ctx, "asha", embedding))

	acct, err := store.ApplyAbsentDeduction(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, acct.Deductions.Equal(decimal.NewFromInt(2000)), "60000/30 = 2000, got %s", acct.Deductions)
	assert.True(t, acct.NetSalary.Equal(decimal.NewFromInt(58000)))
}

func TestDeduction_MissingAccountNotCreated(t *testing.T) {
	// GIVEN: No payroll account for the name
	// WHEN: Applying a deduction
	// THEN: NotFound is surfaced and no account appears

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ApplyDeduction(ctx, "ghost", decimal.NewFromInt(50))
	assert.ErrorIs(t, err, attendance.ErrNotFound)

	_, err = store.ApplyAbsentDeduction(ctx, "ghost")
	assert.ErrorIs(t, err, attendance.ErrNotFound)

	_, err = store.Account(ctx, "ghost")
	assert.ErrorIs(t, err, attendance.ErrNotFound)
}
