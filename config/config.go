/*
Package config loads runtime configuration from the environment and an
optional YAML schedule file.

SOURCES (later wins):
  1. Built-in defaults (10:00 start, 11:00 cutoff, 0.6 threshold,
     50 late fine)
  2. Schedule YAML file, if ATTENDANCE_SCHEDULE_FILE points at one
  3. Environment variables

ENVIRONMENT:
  ATTENDANCE_DB             SQLite database path (default attendance.db)
  ATTENDANCE_RECORDS_DIR    Daily log directory (default attendance_records)
  ATTENDANCE_PORT           HTTP port (default 8080)
  ATTENDANCE_MATCH_THRESHOLD  Matcher acceptance distance
  ATTENDANCE_SCHEDULE_FILE  Path to schedule YAML

SCHEDULE FILE:
  office_start: "10:00:00"
  cutoff:       "11:00:00"
  late_fine:    50
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/identity"
)

type Config struct {
	Port           int
	DBPath         string
	RecordsDir     string
	MatchThreshold float64
	LateFine       decimal.Decimal
	Schedule       attendance.Schedule
}

type scheduleYAML struct {
	OfficeStart string   `yaml:"office_start"`
	Cutoff      string   `yaml:"cutoff"`
	LateFine    *float64 `yaml:"late_fine"`
}

// Load builds the configuration from defaults, the optional schedule
// file, and environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           8080,
		DBPath:         "attendance.db",
		RecordsDir:     "attendance_records",
		MatchThreshold: identity.DefaultThreshold,
		LateFine:       engine.DefaultLateFine,
		Schedule:       attendance.DefaultSchedule(),
	}

	if path := os.Getenv("ATTENDANCE_SCHEDULE_FILE"); path != "" {
		if err := cfg.loadScheduleFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("ATTENDANCE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ATTENDANCE_RECORDS_DIR"); v != "" {
		cfg.RecordsDir = v
	}
	if v := os.Getenv("ATTENDANCE_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid ATTENDANCE_PORT %q", v)
		}
		cfg.Port = n
	}
	if v := os.Getenv("ATTENDANCE_MATCH_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid ATTENDANCE_MATCH_THRESHOLD %q", v)
		}
		cfg.MatchThreshold = f
	}

	return cfg, nil
}

func (c *Config) loadScheduleFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schedule file: %w", err)
	}

	var sy scheduleYAML
	if err := yaml.Unmarshal(raw, &sy); err != nil {
		return fmt.Errorf("failed to parse schedule file: %w", err)
	}

	if sy.OfficeStart != "" {
		c.Schedule.OfficeStart, err = attendance.ParseClock(sy.OfficeStart)
		if err != nil {
			return err
		}
	}
	if sy.Cutoff != "" {
		c.Schedule.Cutoff, err = attendance.ParseClock(sy.Cutoff)
		if err != nil {
			return err
		}
	}
	if sy.LateFine != nil {
		if *sy.LateFine < 0 {
			return fmt.Errorf("late_fine must not be negative")
		}
		c.LateFine = decimal.NewFromFloat(*sy.LateFine)
	}

	if c.Schedule.Cutoff.Seconds() <= c.Schedule.OfficeStart.Seconds() {
		return fmt.Errorf("cutoff %s must be after office_start %s",
			c.Schedule.Cutoff, c.Schedule.OfficeStart)
	}
	return nil
}
