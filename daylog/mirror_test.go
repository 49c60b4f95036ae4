package daylog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/daylog"
)

func TestOpen_EmptyFileGetsHeader(t *testing.T) {
	dir := t.TempDir()

	m, err := daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "2026-09-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Time,Status\n", string(raw))
}

func TestAppend_FlushedRowAndSeenSet(t *testing.T) {
	dir := t.TempDir()

	m, err := daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Append("asha", "09:55:00", attendance.Present()))
	assert.True(t, m.Seen("asha"))
	assert.False(t, m.Seen("borys"))

	// Durable before Close: read the file while the handle is open.
	raw, err := os.ReadFile(filepath.Join(dir, "2026-09-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Time,Status\nasha,09:55:00,Present\n", string(raw))
}

func TestAppend_SameNameTwiceIsNoOp(t *testing.T) {
	dir := t.TempDir()

	m, err := daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)

	require.NoError(t, m.Append("asha", "10:12:00", attendance.Late(12)))
	require.NoError(t, m.Append("asha", "14:00:00", attendance.Absent()))
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "2026-09-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Time,Status\nasha,10:12:00,Late by 12 mins\n", string(raw))
}

func TestOpen_ReplaysExistingRows(t *testing.T) {
	// GIVEN: A day file left behind by a previous run
	// WHEN: Reopening the same date
	// THEN: The seen set is rebuilt from the rows, header skipped,
	// and new appends land after the old ones

	dir := t.TempDir()

	m, err := daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)
	require.NoError(t, m.Append("alice", "09:10:00", attendance.Present()))
	require.NoError(t, m.Append("bob", "10:05:00", attendance.Late(5)))
	require.NoError(t, m.Close())

	m, err = daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	assert.True(t, m.Seen("alice"))
	assert.True(t, m.Seen("bob"))
	assert.False(t, m.Seen("carol"))
	assert.Equal(t, []string{"alice", "bob"}, m.Names())

	require.NoError(t, m.Append("carol", "10:30:00", attendance.Late(30)))
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "2026-09-01.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"Name,Time,Status\nalice,09:10:00,Present\nbob,10:05:00,Late by 5 mins\ncarol,10:30:00,Late by 30 mins\n",
		string(raw))
}

func TestRotate_SwitchesFileAndResetsSeen(t *testing.T) {
	dir := t.TempDir()

	m, err := daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Append("asha", "09:55:00", attendance.Present()))
	require.NoError(t, m.Rotate("2026-09-02"))

	assert.Equal(t, "2026-09-02", m.Date())
	assert.False(t, m.Seen("asha"), "new day, fresh seen set")

	require.NoError(t, m.Append("asha", "10:02:00", attendance.Late(2)))

	day2, err := os.ReadFile(filepath.Join(dir, "2026-09-02.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Time,Status\nasha,10:02:00,Late by 2 mins\n", string(day2))
}

func TestRotate_SameDateIsNoOp(t *testing.T) {
	dir := t.TempDir()

	m, err := daylog.Open(dir, "2026-09-01")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Append("asha", "09:55:00", attendance.Present()))
	require.NoError(t, m.Rotate("2026-09-01"))
	assert.True(t, m.Seen("asha"))
}
