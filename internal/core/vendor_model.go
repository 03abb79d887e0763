package core

import (
	"context"
	"time"
)

// Vendor is a subcontractor or supplier that purchase orders are issued to.
type Vendor struct {
	ID               int        `json:"id"`
	CompanyID        int        `json:"company_id"`
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	ContactPerson    *string    `json:"contact_person,omitempty"`
	Email            *string    `json:"email,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	Address          *string    `json:"address,omitempty"`
	Trade            *string    `json:"trade,omitempty"`
	PaymentTermsDays int        `json:"payment_terms_days"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// VendorInput holds the fields required to create a new vendor. Phone is
// expected in E.164 form; callers normalise it before reaching the service.
type VendorInput struct {
	Code             string
	Name             string
	ContactPerson    string
	Email            string
	Phone            string
	Address          string
	Trade            string
	PaymentTermsDays int
}

// VendorService provides vendor master data operations.
type VendorService interface {
	// CreateVendor creates a new vendor record for the given company.
	CreateVendor(ctx context.Context, companyID int, input VendorInput) (*Vendor, error)

	// GetVendors returns the company's vendors that are not in the trash.
	GetVendors(ctx context.Context, companyID int) ([]Vendor, error)

	// GetVendorByCode returns a specific vendor by its code, scoped to the company.
	GetVendorByCode(ctx context.Context, companyID int, code string) (*Vendor, error)

	// TrashVendor soft-deletes a vendor. Its purchase orders are kept.
	TrashVendor(ctx context.Context, companyID int, code string) error
}
