package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// JobOrder tracks the work opened by an approved estimate. Its invoicing
// progress is always derived from the linked invoices, never stored.
type JobOrder struct {
	ID           int              `json:"id"`
	CompanyID    int              `json:"company_id"`
	Number       string           `json:"number"`
	EstimateID   *int             `json:"estimate_id,omitempty"`
	CustomerID   int              `json:"customer_id"`
	CustomerName string           `json:"customer_name"`
	ProjectID    *int             `json:"project_id,omitempty"`
	Status       Status           `json:"status"`
	Total        decimal.Decimal  `json:"total"`
	StartDate    time.Time        `json:"start_date"`
	Progress     JobOrderProgress `json:"progress"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// JobOrderService provides job order operations.
type JobOrderService interface {
	// GetJobOrder returns a job order with its invoicing progress.
	GetJobOrder(ctx context.Context, companyID, jobOrderID int) (*JobOrder, error)

	// GetJobOrders returns job orders with progress, optionally filtered by status.
	GetJobOrders(ctx context.Context, companyID int, status Status) ([]JobOrder, error)

	// UpdateStatus moves a job order along its lifecycle.
	UpdateStatus(ctx context.Context, companyID, jobOrderID int, to Status) (*JobOrder, error)
}
