package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// VendorBill is a vendor's invoice filed against a purchase order.
type VendorBill struct {
	ID              int             `json:"id"`
	CompanyID       int             `json:"company_id"`
	Number          string          `json:"number"`
	PurchaseOrderID int             `json:"purchase_order_id"`
	PONumber        string          `json:"po_number"`
	VendorID        int             `json:"vendor_id"`
	VendorName      string          `json:"vendor_name"`
	VendorReference *string         `json:"vendor_reference,omitempty"`
	Status          Status          `json:"status"`
	BillDate        time.Time       `json:"bill_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// VendorBillInput holds the fields for filing a vendor bill. The vendor is
// taken from the purchase order.
type VendorBillInput struct {
	PurchaseOrderID int
	VendorReference string
	BillDate        time.Time
	DueDate         *time.Time
	Total           decimal.Decimal
	Notes           string
}

// VendorBillService provides vendor bill operations.
type VendorBillService interface {
	// CreateBill files an open bill against a PO. It fails with
	// ErrPurchaseOrderClosed when the PO is closed for billing and returns a
	// non-empty warning when the bill takes billing past the PO total.
	CreateBill(ctx context.Context, companyID int, input VendorBillInput) (bill *VendorBill, warning string, err error)

	// GetBill returns a single vendor bill.
	GetBill(ctx context.Context, companyID, billID int) (*VendorBill, error)

	// GetBillsByPO returns every bill filed against a PO, oldest first.
	GetBillsByPO(ctx context.Context, companyID, poID int) ([]VendorBill, error)

	// UpdateStatus moves a bill along its lifecycle. Void bills drop out of
	// the PO billing rollup.
	UpdateStatus(ctx context.Context, companyID, billID int, to Status) (*VendorBill, error)
}
