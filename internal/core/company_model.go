package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Company is a tenant.
type Company struct {
	ID          int       `json:"id"`
	CompanyCode string    `json:"company_code"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// CompanySettings is the per-company configuration read by the locked-period
// gate, tax rollups, and clock-in geofencing. Callers load it once and pass
// it in; nothing in core fetches it implicitly.
type CompanySettings struct {
	CompanyID           int             `json:"company_id"`
	LockedPeriodDate    *time.Time      `json:"locked_period_date,omitempty"`
	LockedPeriodEnabled bool            `json:"locked_period_enabled"`
	DefaultTaxRate      decimal.Decimal `json:"default_tax_rate"`
	DefaultMarkupPct    decimal.Decimal `json:"default_markup_percent"`
	GeofenceRadiusMiles float64         `json:"geofence_radius_miles"`
	Timezone            string          `json:"timezone"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (s CompanySettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Gate returns the locked-period gate for these settings.
func (s CompanySettings) Gate() LockedPeriodGate {
	return NewLockedPeriodGate(s)
}

// CompanySettingsInput holds the mutable settings fields. Nil fields are left
// unchanged.
type CompanySettingsInput struct {
	LockedPeriodDate    *time.Time
	ClearLockedPeriod   bool
	LockedPeriodEnabled *bool
	DefaultTaxRate      *decimal.Decimal
	DefaultMarkupPct    *decimal.Decimal
	GeofenceRadiusMiles *float64
	Timezone            *string
}

// CompanyService provides tenant lookup and settings.
type CompanyService interface {
	// GetByCode returns a company by its code.
	GetByCode(ctx context.Context, code string) (*Company, error)

	// List returns all companies ordered by code.
	List(ctx context.Context) ([]Company, error)

	// GetSettings returns the company's settings, creating the default row
	// on first access.
	GetSettings(ctx context.Context, companyID int) (*CompanySettings, error)

	// UpdateSettings applies input and returns the stored settings.
	UpdateSettings(ctx context.Context, companyID int, input CompanySettingsInput) (*CompanySettings, error)
}
