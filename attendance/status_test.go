package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func at(clock string) time.Time {
	t, err := time.Parse(attendance.ClockLayout, clock)
	if err != nil {
		panic(err)
	}
	return time.Date(2026, time.September, 1, t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

// =============================================================================
// BOUNDARY TESTS
// =============================================================================

func TestClassify_Boundaries(t *testing.T) {
	s := attendance.DefaultSchedule()

	tests := []struct {
		name  string
		clock string
		want  attendance.Status
	}{
		{"well before start", "09:15:00", attendance.Present()},
		{"exactly office start", "10:00:00", attendance.Present()},
		{"one minute after start", "10:01:00", attendance.Late(1)},
		{"one second after start floors to zero", "10:00:01", attendance.Late(0)},
		{"one second before cutoff", "10:59:59", attendance.Late(59)},
		{"exactly cutoff", "11:00:00", attendance.Absent()},
		{"afternoon", "14:00:00", attendance.Absent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(at(tt.clock)))
		})
	}
}

func TestClassify_ConfigurableBoundaries(t *testing.T) {
	// GIVEN: A site with a 09:30 start and 10:00 cutoff
	s := attendance.Schedule{
		OfficeStart: attendance.MustParseClock("09:30:00"),
		Cutoff:      attendance.MustParseClock("10:00:00"),
	}

	assert.Equal(t, attendance.Present(), s.Classify(at("09:30:00")))
	assert.Equal(t, attendance.Late(15), s.Classify(at("09:45:00")))
	assert.Equal(t, attendance.Absent(), s.Classify(at("10:00:00")))
}

func TestClassifyClock_FromLedgerTime(t *testing.T) {
	s := attendance.DefaultSchedule()

	status, err := s.ClassifyClock("10:12:30")
	require.NoError(t, err)
	assert.Equal(t, attendance.Late(12), status)

	_, err = s.ClassifyClock("not-a-time")
	assert.Error(t, err)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Present", attendance.Present().String())
	assert.Equal(t, "Late by 12 mins", attendance.Late(12).String())
	assert.Equal(t, "Absent", attendance.Absent().String())
}

func TestParseClock(t *testing.T) {
	c, err := attendance.ParseClock("10:00:00")
	require.NoError(t, err)
	assert.Equal(t, 36000, c.Seconds())
	assert.Equal(t, "10:00:00", c.String())

	_, err = attendance.ParseClock("25:00:00")
	assert.Error(t, err)
}
