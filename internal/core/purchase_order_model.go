package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder represents a vendor-facing order. Status and BillingStatus
// are independent: a PO can be in progress yet closed for billing.
type PurchaseOrder struct {
	ID                   int         `json:"id"`
	CompanyID            int         `json:"company_id"`
	Number               string      `json:"number"`
	VendorID             int         `json:"vendor_id"`
	VendorName           string      `json:"vendor_name"`
	ProjectID            *int        `json:"project_id,omitempty"`
	JobOrderID           *int        `json:"job_order_id,omitempty"`
	Status               Status      `json:"status"`
	BillingStatus        BillingFlag `json:"billing_status"`
	PODate               time.Time   `json:"po_date"`
	ExpectedDeliveryDate *time.Time  `json:"expected_delivery_date,omitempty"`
	Totals
	Notes       *string          `json:"notes,omitempty"`
	ClosedAt    *time.Time       `json:"closed_at,omitempty"`
	Lines       []LineItem       `json:"lines,omitempty"`
	BackCharges []BackCharge     `json:"back_charges,omitempty"`
	Billing     POBillingSummary `json:"billing"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// BackCharge is an amount withheld from a vendor, for example for cleanup or
// rework the company had to perform.
type BackCharge struct {
	ID              int             `json:"id"`
	PurchaseOrderID int             `json:"purchase_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	ChargeDate      time.Time       `json:"charge_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PurchaseOrderInput holds the fields required to create a purchase order.
type PurchaseOrderInput struct {
	VendorID             int
	ProjectID            *int
	JobOrderID           *int
	PODate               time.Time
	ExpectedDeliveryDate *time.Time
	TaxRate              *decimal.Decimal
	Lines                []LineItem
	Notes                string
}

// BackChargeInput holds the fields for recording a back charge.
type BackChargeInput struct {
	Amount     decimal.Decimal
	Reason     string
	ChargeDate time.Time
}

// PurchaseOrderFilter narrows GetPOs. Zero values match everything.
type PurchaseOrderFilter struct {
	Status        Status
	BillingStatus BillingFlag
	VendorID      int
	ProjectID     int
}

// PurchaseOrderService provides purchase order lifecycle operations.
type PurchaseOrderService interface {
	// CreatePO creates a draft purchase order, open for billing, with a fresh
	// PO number. Cost-plus lines without a markup get none: PO lines carry
	// vendor cost.
	CreatePO(ctx context.Context, companyID int, input PurchaseOrderInput) (*PurchaseOrder, error)

	// GetPO returns a purchase order with lines, back charges and its billing summary.
	GetPO(ctx context.Context, companyID, poID int) (*PurchaseOrder, error)

	// GetPOs returns purchase orders with their billing summaries, newest first.
	GetPOs(ctx context.Context, companyID int, filter PurchaseOrderFilter) ([]PurchaseOrder, error)

	// UpdateStatus moves a PO along its lifecycle. Cancelling also closes billing.
	UpdateStatus(ctx context.Context, companyID, poID int, to Status) (*PurchaseOrder, error)

	// ClosePO closes the PO for billing. It always succeeds for an existing PO
	// and returns a non-empty warning when an unbilled balance remains.
	// Closing an already closed PO changes nothing.
	ClosePO(ctx context.Context, companyID, poID int) (po *PurchaseOrder, warning string, err error)

	// ReopenPO reopens billing and moves the PO to in_progress, whatever its
	// prior status.
	ReopenPO(ctx context.Context, companyID, poID int) (*PurchaseOrder, error)

	// AddBackCharge records a back charge against a PO. The charge date must
	// be outside the locked period.
	AddBackCharge(ctx context.Context, companyID, poID int, input BackChargeInput) (*BackCharge, error)

	// BillingSummary returns the vendor-billing rollup for a PO.
	BillingSummary(ctx context.Context, companyID, poID int) (POBillingSummary, error)
}
