package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsCache is an optional read-through cache for company settings.
// Implementations must treat a miss as (nil, false, nil).
type SettingsCache interface {
	GetSettings(ctx context.Context, companyID int) (*CompanySettings, bool, error)
	SetSettings(ctx context.Context, settings *CompanySettings) error
	InvalidateSettings(ctx context.Context, companyID int) error
}

type companyService struct {
	pool  *pgxpool.Pool
	cache SettingsCache
}

// NewCompanyService constructs a CompanyService backed by PostgreSQL. cache
// may be nil.
func NewCompanyService(pool *pgxpool.Pool, cache SettingsCache) CompanyService {
	return &companyService{pool: pool, cache: cache}
}

func (s *companyService) GetByCode(ctx context.Context, code string) (*Company, error) {
	c := &Company{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, created_at FROM companies WHERE company_code = $1",
		code,
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("company", code)
		}
		return nil, fmt.Errorf("resolve company %s: %w", code, err)
	}
	return c, nil
}

func (s *companyService) List(ctx context.Context) ([]Company, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, company_code, name, created_at FROM companies ORDER BY company_code")
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.CompanyCode, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetSettings returns cached settings when available. Cache failures fall
// through to the database.
func (s *companyService) GetSettings(ctx context.Context, companyID int) (*CompanySettings, error) {
	if s.cache != nil {
		if cs, ok, err := s.cache.GetSettings(ctx, companyID); err == nil && ok {
			return cs, nil
		}
	}

	if _, err := s.pool.Exec(ctx,
		"INSERT INTO company_settings (company_id) VALUES ($1) ON CONFLICT (company_id) DO NOTHING",
		companyID,
	); err != nil {
		return nil, fmt.Errorf("ensure settings for company %d: %w", companyID, err)
	}

	cs, err := scanSettings(s.pool.QueryRow(ctx, settingsSelect+" WHERE company_id = $1", companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("company", companyID)
		}
		return nil, fmt.Errorf("get settings for company %d: %w", companyID, err)
	}

	if s.cache != nil {
		_ = s.cache.SetSettings(ctx, cs)
	}
	return cs, nil
}

func (s *companyService) UpdateSettings(ctx context.Context, companyID int, input CompanySettingsInput) (*CompanySettings, error) {
	if input.DefaultTaxRate != nil && (input.DefaultTaxRate.IsNegative() || input.DefaultTaxRate.GreaterThanOrEqual(one)) {
		return nil, invalidf("default tax rate must be a fraction in [0, 1)")
	}
	if input.GeofenceRadiusMiles != nil && *input.GeofenceRadiusMiles <= 0 {
		return nil, invalidf("geofence radius must be positive")
	}
	if input.Timezone != nil {
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			return nil, invalidf("unknown timezone %q", *input.Timezone)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"INSERT INTO company_settings (company_id) VALUES ($1) ON CONFLICT (company_id) DO NOTHING",
		companyID,
	); err != nil {
		return nil, fmt.Errorf("ensure settings for company %d: %w", companyID, err)
	}

	cs, err := scanSettings(tx.QueryRow(ctx, settingsSelect+" WHERE company_id = $1 FOR UPDATE", companyID))
	if err != nil {
		return nil, fmt.Errorf("lock settings for company %d: %w", companyID, err)
	}

	if input.ClearLockedPeriod {
		cs.LockedPeriodDate = nil
	} else if input.LockedPeriodDate != nil {
		d := dateOnly(*input.LockedPeriodDate)
		cs.LockedPeriodDate = &d
	}
	if input.LockedPeriodEnabled != nil {
		cs.LockedPeriodEnabled = *input.LockedPeriodEnabled
	}
	if input.DefaultTaxRate != nil {
		cs.DefaultTaxRate = *input.DefaultTaxRate
	}
	if input.DefaultMarkupPct != nil {
		cs.DefaultMarkupPct = *input.DefaultMarkupPct
	}
	if input.GeofenceRadiusMiles != nil {
		cs.GeofenceRadiusMiles = *input.GeofenceRadiusMiles
	}
	if input.Timezone != nil {
		cs.Timezone = *input.Timezone
	}
	if cs.LockedPeriodEnabled && cs.LockedPeriodDate == nil {
		return nil, invalidf("locked period cannot be enabled without a locked period date")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE company_settings
		SET locked_period_date = $1, locked_period_enabled = $2, default_tax_rate = $3,
		    default_markup_percent = $4, geofence_radius_miles = $5, timezone = $6, updated_at = NOW()
		WHERE company_id = $7`,
		optDate(cs.LockedPeriodDate), cs.LockedPeriodEnabled, cs.DefaultTaxRate,
		cs.DefaultMarkupPct, cs.GeofenceRadiusMiles, cs.Timezone, companyID,
	); err != nil {
		return nil, fmt.Errorf("update settings for company %d: %w", companyID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settings: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSettings(ctx, companyID)
	}
	return s.GetSettings(ctx, companyID)
}

const settingsSelect = `
	SELECT company_id, locked_period_date, locked_period_enabled, default_tax_rate,
	       default_markup_percent, geofence_radius_miles, timezone, updated_at
	FROM company_settings`

func scanSettings(row pgx.Row) (*CompanySettings, error) {
	cs := &CompanySettings{}
	if err := row.Scan(&cs.CompanyID, &cs.LockedPeriodDate, &cs.LockedPeriodEnabled, &cs.DefaultTaxRate,
		&cs.DefaultMarkupPct, &cs.GeofenceRadiusMiles, &cs.Timezone, &cs.UpdatedAt); err != nil {
		return nil, err
	}
	return cs, nil
}
