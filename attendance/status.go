/*
status.go - Time-of-day classification of a first sighting

PURPOSE:
  A pure function of the sighting time against two configured
  boundaries. No clocks, no side effects; the caller supplies the
  moment.

CLASSIFICATION:
  t <= office_start          -> Present
  office_start < t < cutoff  -> Late(minutes past office_start, floored)
  t >= cutoff                -> Absent

  The boundaries are configuration, not constants: a site with a 09:30
  start reuses the same classifier.
*/
package attendance

import (
	"fmt"
	"time"
)

// StatusCode tags the classification outcome.
type StatusCode int

const (
	StatusPresent StatusCode = iota
	StatusLate
	StatusAbsent
)

// Status is the classification of one first sighting.
// LateMinutes is meaningful only when Code == StatusLate.
type Status struct {
	Code        StatusCode
	LateMinutes int
}

func Present() Status         { return Status{Code: StatusPresent} }
func Late(minutes int) Status { return Status{Code: StatusLate, LateMinutes: minutes} }
func Absent() Status          { return Status{Code: StatusAbsent} }

// String renders the daily log file form of the status.
func (s Status) String() string {
	switch s.Code {
	case StatusPresent:
		return "Present"
	case StatusLate:
		return fmt.Sprintf("Late by %d mins", s.LateMinutes)
	case StatusAbsent:
		return "Absent"
	default:
		return "Unknown"
	}
}

// Clock is a time of day with second precision, independent of date
// and zone. The zero Clock is midnight.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock parses "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// MustParseClock parses "HH:MM:SS" and panics on failure.
// For package-level defaults and tests.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Seconds() int { return c.Hour*3600 + c.Minute*60 + c.Second }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Schedule holds the classification boundaries.
type Schedule struct {
	OfficeStart Clock // at or before: Present
	Cutoff      Clock // at or after: Absent
}

// DefaultSchedule is the conventional 10:00 start / 11:00 cutoff.
func DefaultSchedule() Schedule {
	return Schedule{
		OfficeStart: Clock{Hour: 10},
		Cutoff:      Clock{Hour: 11},
	}
}

// Classify maps a sighting moment to its status. Only the time-of-day
// component of t is considered.
func (s Schedule) Classify(t time.Time) Status {
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	switch {
	case sec <= s.OfficeStart.Seconds():
		return Present()
	case sec < s.Cutoff.Seconds():
		return Late((sec - s.OfficeStart.Seconds()) / 60)
	default:
		return Absent()
	}
}

// ClassifyClock classifies a persisted "HH:MM:SS" value. Used when
// regenerating daily log rows from ledger events after a crash.
func (s Schedule) ClassifyClock(clock string) (Status, error) {
	c, err := ParseClock(clock)
	if err != nil {
		return Status{}, err
	}
	return s.Classify(time.Date(0, 1, 1, c.Hour, c.Minute, c.Second, 0, time.UTC)), nil
}
