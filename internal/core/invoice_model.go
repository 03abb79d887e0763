package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice bills a customer, optionally against a job order. Void invoices
// stay on file but are excluded from every rollup.
type Invoice struct {
	ID           int        `json:"id"`
	CompanyID    int        `json:"company_id"`
	Number       string     `json:"number"`
	CustomerID   int        `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	ProjectID    *int       `json:"project_id,omitempty"`
	JobOrderID   *int       `json:"job_order_id,omitempty"`
	Status       Status     `json:"status"`
	InvoiceDate  time.Time  `json:"invoice_date"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Totals
	Notes     *string    `json:"notes,omitempty"`
	VoidedAt  *time.Time `json:"voided_at,omitempty"`
	Lines     []LineItem `json:"lines,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// InvoiceInput holds the fields for creating or editing an invoice. When
// JobOrderID is set and CustomerID is zero, the job order's customer is used.
type InvoiceInput struct {
	CustomerID  int
	ProjectID   *int
	JobOrderID  *int
	InvoiceDate time.Time
	DueDate     *time.Time
	TaxRate     *decimal.Decimal
	Lines       []LineItem
	Notes       string
}

// InvoiceFilter narrows GetInvoices. Zero values match everything.
type InvoiceFilter struct {
	Status     Status
	JobOrderID int
	CustomerID int
}

// InvoiceService provides invoice lifecycle operations.
type InvoiceService interface {
	// CreateInvoice creates a draft invoice with a fresh INV number. The
	// invoice date must be outside the locked period.
	CreateInvoice(ctx context.Context, companyID int, input InvoiceInput) (*Invoice, error)

	// UpdateInvoice replaces a draft invoice's header and lines.
	UpdateInvoice(ctx context.Context, companyID, invoiceID int, input InvoiceInput) (*Invoice, error)

	// GetInvoice returns an invoice with its lines.
	GetInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error)

	// GetInvoices returns invoices without lines, newest first.
	GetInvoices(ctx context.Context, companyID int, filter InvoiceFilter) ([]Invoice, error)

	// UpdateStatus moves an invoice along its lifecycle. Moving to void
	// stamps voided_at.
	UpdateStatus(ctx context.Context, companyID, invoiceID int, to Status) (*Invoice, error)

	// VoidInvoice is UpdateStatus to void.
	VoidInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error)
}
