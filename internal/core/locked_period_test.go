package core_test

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"commandx/internal/core"
)

func lockedSettings(cutoff string, tz string) core.CompanySettings {
	d, err := core.ParseDate(cutoff)
	if err != nil {
		panic(err)
	}
	return core.CompanySettings{
		CompanyID:           1,
		LockedPeriodEnabled: true,
		LockedPeriodDate:    &d,
		Timezone:            tz,
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestLockedPeriodGate_Boundary(t *testing.T) {
	gate := core.NewLockedPeriodGate(lockedSettings("2024-01-31", ""))

	tests := []struct {
		date   string
		locked bool
	}{
		{"2023-12-15", true},
		{"2024-01-31", true},
		{"2024-02-01", false},
		{"2024-06-30", false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := gate.IsDateLocked(mustDate(t, tt.date)); got != tt.locked {
				t.Errorf("IsDateLocked(%s) = %v, want %v", tt.date, got, tt.locked)
			}
			res := gate.Check(mustDate(t, tt.date), "Invoice")
			if res.Valid == tt.locked {
				t.Errorf("Check(%s).Valid = %v, want %v", tt.date, res.Valid, !tt.locked)
			}
			if tt.locked && !strings.Contains(res.Message, "2024-01-31") {
				t.Errorf("expected message to name the cutoff, got %q", res.Message)
			}
		})
	}
}

func TestLockedPeriodGate_MinAllowedDate(t *testing.T) {
	gate := core.NewLockedPeriodGate(lockedSettings("2024-01-31", ""))
	minDate := gate.MinAllowedDate()
	if minDate == nil {
		t.Fatal("expected a min allowed date")
	}
	if got := minDate.Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("expected 2024-02-01, got %s", got)
	}
	if c := gate.Cutoff(); c == nil || c.Format("2006-01-02") != "2024-01-31" {
		t.Errorf("unexpected cutoff %v", c)
	}
}

func TestLockedPeriodGate_Inactive(t *testing.T) {
	disabled := lockedSettings("2024-01-31", "")
	disabled.LockedPeriodEnabled = false

	for name, gate := range map[string]core.LockedPeriodGate{
		"zero value":   {},
		"disabled":     core.NewLockedPeriodGate(disabled),
		"no date":      core.NewLockedPeriodGate(core.CompanySettings{LockedPeriodEnabled: true}),
		"via settings": core.CompanySettings{}.Gate(),
	} {
		t.Run(name, func(t *testing.T) {
			if gate.Active() {
				t.Error("expected inactive gate")
			}
			if !gate.Check(mustDate(t, "1999-01-01"), "Estimate").Valid {
				t.Error("inactive gate must accept every date")
			}
			if !gate.CheckString("not a date", "Estimate").Valid {
				t.Error("inactive gate must not parse dates")
			}
			if gate.MinAllowedDate() != nil {
				t.Error("inactive gate has no min allowed date")
			}
		})
	}
}

func TestLockedPeriodGate_CheckString(t *testing.T) {
	gate := core.NewLockedPeriodGate(lockedSettings("2024-01-31", "America/New_York"))

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"plain date inside", "2024-01-31", false},
		{"plain date after", "2024-02-01", true},
		{"utc timestamp that is still jan 31 in new york", "2024-02-01T03:00:00Z", false},
		{"utc timestamp on feb 1 in new york", "2024-02-01T15:00:00Z", true},
		{"garbage", "31/01/2024", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := gate.CheckString(tt.input, "Vendor bill")
			if res.Valid != tt.valid {
				t.Errorf("CheckString(%q).Valid = %v, want %v (%s)", tt.input, res.Valid, tt.valid, res.Message)
			}
		})
	}

	if res := gate.CheckString("31/01/2024", ""); !strings.Contains(res.Message, "invalid record date") {
		t.Errorf("expected invalid-date message, got %q", res.Message)
	}
}

func TestLockedPeriodGate_CheckInstantUsesCompanyTimezone(t *testing.T) {
	gate := core.NewLockedPeriodGate(lockedSettings("2024-01-31", "America/New_York"))

	tests := []struct {
		name   string
		d      time.Time
		locked bool
	}{
		{"utc instant still jan 31 in new york", time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC), true},
		{"utc instant on feb 1 in new york", time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC), false},
		{"plain date after cutoff", mustDate(t, "2024-02-01"), false},
		{"date column value after cutoff", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"date column value on cutoff", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.IsDateLocked(tt.d); got != tt.locked {
				t.Errorf("IsDateLocked(%v) = %v, want %v", tt.d, got, tt.locked)
			}
			res := gate.Check(tt.d, "Invoice")
			if res.Valid == tt.locked {
				t.Errorf("Check(%v).Valid = %v, want %v", tt.d, res.Valid, !tt.locked)
			}
			if tt.locked && !strings.Contains(res.Message, "dated 2024-01-31") {
				t.Errorf("expected the local date in the message, got %q", res.Message)
			}
		})
	}
}

func TestLockedPeriodGate_Enforce(t *testing.T) {
	gate := core.NewLockedPeriodGate(lockedSettings("2024-01-31", ""))

	err := gate.Enforce(mustDate(t, "2024-01-15"), "Purchase order")
	if !errors.Is(err, core.ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked, got %v", err)
	}
	var ple *core.PeriodLockedError
	if !errors.As(err, &ple) || !strings.Contains(ple.Message, "Purchase order") {
		t.Errorf("expected message naming the entity, got %v", err)
	}
	if err := gate.Enforce(mustDate(t, "2024-02-15"), "Purchase order"); err != nil {
		t.Errorf("expected no error after cutoff, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := core.ParseDate(" 2025-03-09 ")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Format("2006-01-02") != "2025-03-09" {
		t.Errorf("unexpected date %v", d)
	}
	if _, err := core.ParseDate("2025-13-01"); err == nil {
		t.Error("expected error for month 13")
	}
}
