package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

type timeEntryService struct {
	pool     *pgxpool.Pool
	settings SettingsProvider
}

// NewTimeEntryService constructs a TimeEntryService backed by PostgreSQL.
func NewTimeEntryService(pool *pgxpool.Pool, settings SettingsProvider) TimeEntryService {
	return &timeEntryService{pool: pool, settings: settings}
}

const timeEntryColumns = `id, company_id, personnel_id, project_id, clock_in_at, clock_in_lat, clock_in_lng,
	clock_in_distance_miles, clock_out_at, clock_out_lat, clock_out_lng, hours, notes, created_at`

func scanTimeEntry(row pgx.Row, e *TimeEntry) error {
	return row.Scan(&e.ID, &e.CompanyID, &e.PersonnelID, &e.ProjectID, &e.ClockInAt, &e.ClockInLat, &e.ClockInLng,
		&e.ClockInDistanceMiles, &e.ClockOutAt, &e.ClockOutLat, &e.ClockOutLng, &e.Hours, &e.Notes, &e.CreatedAt)
}

func (s *timeEntryService) ClockIn(ctx context.Context, companyID int, input ClockInInput) (*TimeEntry, error) {
	if !ValidCoordinates(input.Lat, input.Lng) {
		return nil, ErrInvalidCoordinates
	}
	if input.At.IsZero() {
		input.At = time.Now()
	}

	settings, err := s.settings.GetSettings(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load company settings: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	if err := tx.QueryRow(ctx,
		"SELECT deleted_at IS NULL FROM personnel WHERE id = $1 AND company_id = $2 FOR UPDATE",
		input.PersonnelID, companyID,
	).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("personnel", input.PersonnelID)
		}
		return nil, fmt.Errorf("fetch personnel %d: %w", input.PersonnelID, err)
	}
	if !active {
		return nil, invalidf("personnel %d is trashed and cannot clock in", input.PersonnelID)
	}

	project, err := getProject(ctx, tx, companyID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	var distance *float64
	if project.HasSite() {
		d := CalculateDistanceMiles(*input.Lat, *input.Lng, *project.SiteLat, *project.SiteLng)
		radius := clockInRadius(project, settings)
		if !IsWithinGeofence(*input.Lat, *input.Lng, *project.SiteLat, *project.SiteLng, radius) {
			return nil, fmt.Errorf("%.2f miles from %s (limit %.2f): %w", d, project.Name, radius, ErrOutsideGeofence)
		}
		distance = &d
	}

	e := &TimeEntry{}
	err = scanTimeEntry(tx.QueryRow(ctx, `
		INSERT INTO time_entries (company_id, personnel_id, project_id, clock_in_at, clock_in_lat, clock_in_lng,
		                          clock_in_distance_miles, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+timeEntryColumns,
		companyID, input.PersonnelID, input.ProjectID, input.At.UTC(), input.Lat, input.Lng,
		distance, optString(input.Notes),
	), e)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyClockedIn
		}
		return nil, fmt.Errorf("insert time entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit clock-in: %w", err)
	}
	return e, nil
}

// clockInRadius picks the project radius, then the company radius, then the
// default.
func clockInRadius(p *Project, settings *CompanySettings) float64 {
	if p.GeofenceRadiusMiles != nil && *p.GeofenceRadiusMiles > 0 {
		return *p.GeofenceRadiusMiles
	}
	if settings != nil && settings.GeofenceRadiusMiles > 0 {
		return settings.GeofenceRadiusMiles
	}
	return DefaultGeofenceRadiusMiles
}

func (s *timeEntryService) ClockOut(ctx context.Context, companyID int, input ClockOutInput) (*TimeEntry, error) {
	if (input.Lat != nil || input.Lng != nil) && !ValidCoordinates(input.Lat, input.Lng) {
		return nil, ErrInvalidCoordinates
	}
	if input.At.IsZero() {
		input.At = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var entryID int
	var clockInAt time.Time
	if err := tx.QueryRow(ctx, `
		SELECT id, clock_in_at FROM time_entries
		WHERE personnel_id = $1 AND company_id = $2 AND clock_out_at IS NULL
		FOR UPDATE`,
		input.PersonnelID, companyID,
	).Scan(&entryID, &clockInAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("open time entry for personnel %d: %w", input.PersonnelID, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch open time entry: %w", err)
	}
	if input.At.Before(clockInAt) {
		return nil, invalidf("clock-out at %s precedes clock-in at %s",
			input.At.UTC().Format(time.RFC3339), clockInAt.UTC().Format(time.RFC3339))
	}

	e := &TimeEntry{}
	err = scanTimeEntry(tx.QueryRow(ctx, `
		UPDATE time_entries
		SET clock_out_at = $1, clock_out_lat = $2, clock_out_lng = $3, hours = $4
		WHERE id = $5
		RETURNING `+timeEntryColumns,
		input.At.UTC(), input.Lat, input.Lng, WorkedHours(clockInAt, input.At), entryID,
	), e)
	if err != nil {
		return nil, fmt.Errorf("close time entry %d: %w", entryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit clock-out: %w", err)
	}
	return e, nil
}

func (s *timeEntryService) GetTimeEntries(ctx context.Context, companyID int, filter TimeEntryFilter) ([]TimeEntry, error) {
	query := "SELECT " + timeEntryColumns + " FROM time_entries WHERE company_id = $1"
	args := []any{companyID}
	if filter.PersonnelID != 0 {
		args = append(args, filter.PersonnelID)
		query += fmt.Sprintf(" AND personnel_id = $%d", len(args))
	}
	if filter.ProjectID != 0 {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND clock_in_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND clock_in_at < $%d", len(args))
	}
	query += " ORDER BY clock_in_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := scanTimeEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
