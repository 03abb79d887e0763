package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is one clock-in/clock-out span for a worker on a project. An
// entry with a nil ClockOutAt is open; each worker has at most one.
type TimeEntry struct {
	ID                   int              `json:"id"`
	CompanyID            int              `json:"company_id"`
	PersonnelID          int              `json:"personnel_id"`
	ProjectID            int              `json:"project_id"`
	ClockInAt            time.Time        `json:"clock_in_at"`
	ClockInLat           *float64         `json:"clock_in_lat,omitempty"`
	ClockInLng           *float64         `json:"clock_in_lng,omitempty"`
	ClockInDistanceMiles *float64         `json:"clock_in_distance_miles,omitempty"`
	ClockOutAt           *time.Time       `json:"clock_out_at,omitempty"`
	ClockOutLat          *float64         `json:"clock_out_lat,omitempty"`
	ClockOutLng          *float64         `json:"clock_out_lng,omitempty"`
	Hours                *decimal.Decimal `json:"hours,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// ClockInInput holds a clock-in request. Lat and Lng are the device position.
type ClockInInput struct {
	PersonnelID int
	ProjectID   int
	Lat         *float64
	Lng         *float64
	At          time.Time
	Notes       string
}

// ClockOutInput holds a clock-out request. Coordinates are optional.
type ClockOutInput struct {
	PersonnelID int
	Lat         *float64
	Lng         *float64
	At          time.Time
}

// TimeEntryFilter narrows GetTimeEntries. Zero values match everything.
type TimeEntryFilter struct {
	PersonnelID int
	ProjectID   int
	From        *time.Time
	To          *time.Time
}

// TimeEntryService provides clock-in and clock-out operations.
type TimeEntryService interface {
	// ClockIn opens a time entry. The coordinates must be valid and, when the
	// project has a site, within its geofence.
	ClockIn(ctx context.Context, companyID int, input ClockInInput) (*TimeEntry, error)

	// ClockOut closes the worker's open entry and records worked hours.
	ClockOut(ctx context.Context, companyID int, input ClockOutInput) (*TimeEntry, error)

	// GetTimeEntries returns entries newest first.
	GetTimeEntries(ctx context.Context, companyID int, filter TimeEntryFilter) ([]TimeEntry, error)
}

// WorkedHours returns the span between two instants in hours, rounded to
// two places. A negative span counts as zero.
func WorkedHours(in, out time.Time) decimal.Decimal {
	d := out.Sub(in)
	if d < 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600)).Round(2)
}
