/*
Package daylog maintains the daily append-only log file that mirrors
the attendance ledger's decisions.

PURPOSE:
  One CSV file per calendar date (Name, Time, Status). Every confirmed
  first-sighting appends one row and flushes durably before returning,
  so a crash immediately afterwards cannot lose the write. On open, the
  existing rows for the day are replayed into an in-memory seen set so
  a restarted process does not re-record anyone.

INVARIANT:
  The set of names in today's file equals the set of names with an
  attendance event for today. When the two diverge after a crash the
  ledger is the source of truth; the engine appends recovery rows here
  to restore the invariant.

OWNERSHIP:
  The Mirror owns the current day's file handle and the seen set. It is
  an explicit object with Close, not a module-level global; all exit
  paths flush and release the handle.

SEE ALSO:
  - engine: calls Append after each ledger insert, Reconcile at startup
*/
package daylog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

var header = []string{"Name", "Time", "Status"}

// Mirror is the append-only daily log for one calendar date.
type Mirror struct {
	mu   sync.Mutex
	dir  string
	date string
	file *os.File
	w    *csv.Writer
	seen map[string]bool
}

// Open creates (or resumes) the log file for the given date under dir.
// An empty file gets the header row; otherwise existing rows are
// replayed into the seen set, skipping the header.
func Open(dir, date string) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records dir: %w", err)
	}

	m := &Mirror{dir: dir, date: date}
	if err := m.open(date); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mirror) open(date string) error {
	path := filepath.Join(m.dir, date+".csv")

	seen, err := replay(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open day log: %w", err)
	}

	m.date = date
	m.file = f
	m.w = csv.NewWriter(f)
	m.seen = seen

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if info.Size() == 0 {
		if err := m.writeRow(header); err != nil {
			f.Close()
			return err
		}
	}
	return nil
}

// replay reads an existing day file and returns the names already
// recorded. A missing file is an empty set.
func replay(path string) (map[string]bool, error) {
	seen := make(map[string]bool)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read day log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate short rows from a torn write
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse day log: %w", err)
		}
		if first {
			first = false
			continue // header
		}
		if len(row) > 0 && row[0] != "" {
			seen[row[0]] = true
		}
	}
	return seen, nil
}

// Date returns the calendar date this mirror currently covers.
func (m *Mirror) Date() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.date
}

// Seen reports whether name is already recorded for the current day.
func (m *Mirror) Seen(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[name]
}

// Names returns the recorded names for the current day, sorted.
func (m *Mirror) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.seen))
	for n := range m.seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Append writes one row and flushes it to disk before returning.
// Appending a name twice in one day is a no-op.
func (m *Mirror) Append(name, clock string, status attendance.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seen[name] {
		return nil
	}
	if err := m.writeRow([]string{name, clock, status.String()}); err != nil {
		return err
	}
	m.seen[name] = true
	return nil
}

func (m *Mirror) writeRow(row []string) error {
	if err := m.w.Write(row); err != nil {
		return fmt.Errorf("failed to write day log row: %w", err)
	}
	m.w.Flush()
	if err := m.w.Error(); err != nil {
		return fmt.Errorf("failed to flush day log: %w", err)
	}
	return m.file.Sync()
}

// Rotate closes the current day's file and opens the one for date,
// rebuilding the seen set from whatever that file already contains.
func (m *Mirror) Rotate(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if date == m.date {
		return nil
	}
	if err := m.closeLocked(); err != nil {
		return err
	}
	return m.open(date)
}

// Close flushes and releases the file handle.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *Mirror) closeLocked() error {
	if m.file == nil {
		return nil
	}
	m.w.Flush()
	err := m.w.Error()
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	m.file = nil
	return err
}
