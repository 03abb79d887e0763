package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Estimate is a quote sent to a customer. Approving it opens a job order.
type Estimate struct {
	ID           int        `json:"id"`
	CompanyID    int        `json:"company_id"`
	Number       string     `json:"number"`
	CustomerID   int        `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	ProjectID    *int       `json:"project_id,omitempty"`
	Status       Status     `json:"status"`
	EstimateDate time.Time  `json:"estimate_date"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	Totals
	Notes      *string    `json:"notes,omitempty"`
	JobOrderID *int       `json:"job_order_id,omitempty"`
	Lines      []LineItem `json:"lines,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EstimateInput holds the fields for creating or editing an estimate. A nil
// TaxRate means the company default.
type EstimateInput struct {
	CustomerID   int
	ProjectID    *int
	EstimateDate time.Time
	ValidUntil   *time.Time
	TaxRate      *decimal.Decimal
	Lines        []LineItem
	Notes        string
}

// EstimateStatusChange is the result of moving an estimate to a new status.
// JobOrder is set when the change opened one.
type EstimateStatusChange struct {
	Estimate *Estimate      `json:"estimate"`
	Plan     TransitionPlan `json:"plan"`
	JobOrder *JobOrder      `json:"job_order,omitempty"`
}

// EstimateService provides estimate lifecycle operations.
type EstimateService interface {
	// CreateEstimate creates a draft estimate with computed totals and a
	// fresh EST number. The estimate date must be outside the locked period.
	CreateEstimate(ctx context.Context, companyID int, input EstimateInput) (*Estimate, error)

	// UpdateEstimate replaces the estimate's header fields and lines. Both the
	// stored and the new estimate dates must be outside the locked period.
	UpdateEstimate(ctx context.Context, companyID, estimateID int, input EstimateInput) (*Estimate, error)

	// GetEstimate returns an estimate with its lines.
	GetEstimate(ctx context.Context, companyID, estimateID int) (*Estimate, error)

	// GetEstimates returns estimates without lines, newest first. An empty
	// status returns all of them.
	GetEstimates(ctx context.Context, companyID int, status Status) ([]Estimate, error)

	// UpdateStatus moves an estimate to a new status and runs the follow-ups
	// the transition plans, in the same transaction. Moving to the current
	// status is a no-op.
	UpdateStatus(ctx context.Context, companyID, estimateID int, to Status) (*EstimateStatusChange, error)

	// BulkUpdateStatus applies UpdateStatus to each estimate independently and
	// reports per-item results. A failure on one item does not undo others.
	BulkUpdateStatus(ctx context.Context, companyID int, estimateIDs []int, to Status) (*BulkResult, error)

	// DeleteEstimate removes an estimate and its lines. Estimates that already
	// opened a job order cannot be deleted.
	DeleteEstimate(ctx context.Context, companyID, estimateID int) error
}
