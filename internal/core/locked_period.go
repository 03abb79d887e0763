package core

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ValidationResult is the outcome of a non-throwing check. Message is empty
// when Valid is true.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// LockedPeriodGate rejects financial records dated on or before the company's
// locked-period cutoff. The zero value never locks anything.
type LockedPeriodGate struct {
	cutoff  time.Time
	enabled bool
	loc     *time.Location
}

// NewLockedPeriodGate builds a gate from the company settings. The gate is a
// no-op unless locking is enabled and a cutoff date is set.
func NewLockedPeriodGate(settings CompanySettings) LockedPeriodGate {
	g := LockedPeriodGate{loc: settings.Location()}
	if settings.LockedPeriodEnabled && settings.LockedPeriodDate != nil {
		g.enabled = true
		g.cutoff = dateOnly(*settings.LockedPeriodDate)
	}
	return g
}

// Active reports whether the gate can reject anything.
func (g LockedPeriodGate) Active() bool {
	return g.enabled
}

// Cutoff returns the last locked date, or nil when the gate is inactive.
func (g LockedPeriodGate) Cutoff() *time.Time {
	if !g.enabled {
		return nil
	}
	c := g.cutoff
	return &c
}

// IsDateLocked reports whether d's calendar date is on or before the cutoff.
// Instants are read in the company timezone; see calendarDate.
func (g LockedPeriodGate) IsDateLocked(d time.Time) bool {
	if !g.enabled {
		return false
	}
	return !g.calendarDate(d).After(g.cutoff)
}

// Check validates a record date. entity labels the record in the message,
// for example "Invoice".
func (g LockedPeriodGate) Check(d time.Time, entity string) ValidationResult {
	if !g.IsDateLocked(d) {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{
		Valid: false,
		Message: fmt.Sprintf("cannot save %s dated %s: the accounting period is locked through %s",
			entityLabel(entity), g.calendarDate(d).Format(dateLayout), g.cutoff.Format(dateLayout)),
	}
}

// CheckString is Check for a "YYYY-MM-DD" date or an RFC 3339 timestamp.
// Timestamps are read in the company timezone before the time of day is
// dropped. An unparseable date is reported as invalid.
func (g LockedPeriodGate) CheckString(s, entity string) ValidationResult {
	if !g.enabled {
		return ValidationResult{Valid: true}
	}
	d, err := parseRecordDate(s, g.location())
	if err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid %s date %q", entityLabel(entity), s),
		}
	}
	return g.Check(d, entity)
}

// Enforce is Check expressed as an error for service code paths.
func (g LockedPeriodGate) Enforce(d time.Time, entity string) error {
	if res := g.Check(d, entity); !res.Valid {
		return &PeriodLockedError{Message: res.Message}
	}
	return nil
}

// MinAllowedDate is the first date that can still be used, the day after the
// cutoff. It is nil when the gate is inactive.
func (g LockedPeriodGate) MinAllowedDate() *time.Time {
	if !g.enabled {
		return nil
	}
	next := g.cutoff.AddDate(0, 0, 1)
	return &next
}

func (g LockedPeriodGate) location() *time.Location {
	if g.loc == nil {
		return time.UTC
	}
	return g.loc
}

// calendarDate returns the company-local calendar date of d. A UTC value at
// exactly midnight or midday already is a calendar date (DATE columns and
// ParseDate produce those) and is taken as written.
func (g LockedPeriodGate) calendarDate(d time.Time) time.Time {
	if d.Location() == time.UTC && d.Nanosecond() == 0 && d.Minute() == 0 && d.Second() == 0 &&
		(d.Hour() == 0 || d.Hour() == 12) {
		return dateOnly(d)
	}
	return dateOnly(d.In(g.location()))
}

// dateOnly keeps the calendar date of t as written in t's own location and
// anchors it at midday UTC, so that comparisons never roll over a day
// boundary.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// ParseDate parses "YYYY-MM-DD" as a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return dateOnly(t), nil
}

func parseRecordDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(dateLayout) {
		return ParseDate(s)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return dateOnly(t.In(loc)), nil
}

func entityLabel(entity string) string {
	if entity == "" {
		return "record"
	}
	return entity
}
