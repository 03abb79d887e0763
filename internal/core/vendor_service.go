package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type vendorService struct {
	pool *pgxpool.Pool
}

// NewVendorService constructs a VendorService backed by PostgreSQL.
func NewVendorService(pool *pgxpool.Pool) VendorService {
	return &vendorService{pool: pool}
}

const vendorColumns = `id, company_id, code, name, contact_person, email, phone, address,
	trade, payment_terms_days, deleted_at, created_at`

func scanVendor(row pgx.Row, v *Vendor) error {
	return row.Scan(
		&v.ID, &v.CompanyID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
		&v.Trade, &v.PaymentTermsDays, &v.DeletedAt, &v.CreatedAt,
	)
}

// CreateVendor inserts a new vendor record for the given company.
func (s *vendorService) CreateVendor(ctx context.Context, companyID int, input VendorInput) (*Vendor, error) {
	if input.Code == "" || input.Name == "" {
		return nil, invalidf("vendor code and name are required")
	}
	paymentTerms := input.PaymentTermsDays
	if paymentTerms == 0 {
		paymentTerms = 30
	}

	v := &Vendor{}
	err := scanVendor(s.pool.QueryRow(ctx, `
		INSERT INTO vendors (company_id, code, name, contact_person, email, phone, address,
		                     trade, payment_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+vendorColumns,
		companyID, input.Code, input.Name, optString(input.ContactPerson), optString(input.Email),
		optString(input.Phone), optString(input.Address), optString(input.Trade), paymentTerms,
	), v)
	if err != nil {
		return nil, fmt.Errorf("create vendor %q: %w", input.Code, err)
	}
	return v, nil
}

// GetVendors returns all live vendors for a company, ordered by code.
func (s *vendorService) GetVendors(ctx context.Context, companyID int) ([]Vendor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+vendorColumns+`
		FROM vendors
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("get vendors: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := scanVendor(rows, &v); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// GetVendorByCode returns a vendor by code, scoped to the company.
func (s *vendorService) GetVendorByCode(ctx context.Context, companyID int, code string) (*Vendor, error) {
	v := &Vendor{}
	err := scanVendor(s.pool.QueryRow(ctx, `
		SELECT `+vendorColumns+`
		FROM vendors
		WHERE company_id = $1 AND code = $2`,
		companyID, code,
	), v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("vendor", code)
		}
		return nil, fmt.Errorf("get vendor %q: %w", code, err)
	}
	return v, nil
}

// TrashVendor sets deleted_at. Trashing an already trashed vendor is a no-op.
func (s *vendorService) TrashVendor(ctx context.Context, companyID int, code string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vendors SET deleted_at = COALESCE(deleted_at, NOW())
		WHERE company_id = $1 AND code = $2`,
		companyID, code,
	)
	if err != nil {
		return fmt.Errorf("trash vendor %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("vendor", code)
	}
	return nil
}
