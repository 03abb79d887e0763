package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ChangeOrder adjusts a project's contract value. Deductive orders carry a
// positive Total and subtract it in rollups.
type ChangeOrder struct {
	ID          int        `json:"id"`
	CompanyID   int        `json:"company_id"`
	Number      string     `json:"number"`
	ProjectID   int        `json:"project_id"`
	JobOrderID  *int       `json:"job_order_id,omitempty"`
	ChangeType  ChangeType `json:"change_type"`
	Status      Status     `json:"status"`
	ChangeDate  time.Time  `json:"change_date"`
	Description string     `json:"description"`
	Reason      *string    `json:"reason,omitempty"`
	Totals
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	SignedAt   *time.Time `json:"signed_at,omitempty"`
	Lines      []LineItem `json:"lines,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Amount returns the change order as the project rollup sees it.
func (c ChangeOrder) Amount() ChangeOrderAmount {
	return ChangeOrderAmount{Total: c.Total, ChangeType: c.ChangeType, Status: c.Status}
}

// ChangeOrderInput holds the fields required to create a change order.
type ChangeOrderInput struct {
	ProjectID   int
	JobOrderID  *int
	ChangeType  ChangeType
	ChangeDate  time.Time
	Description string
	Reason      string
	TaxRate     *decimal.Decimal
	Lines       []LineItem
}

// ChangeOrderService provides change order operations.
type ChangeOrderService interface {
	// CreateChangeOrder creates a draft change order with a fresh CO number.
	CreateChangeOrder(ctx context.Context, companyID int, input ChangeOrderInput) (*ChangeOrder, error)

	// GetChangeOrder returns a change order with its lines.
	GetChangeOrder(ctx context.Context, companyID, changeOrderID int) (*ChangeOrder, error)

	// GetChangeOrders returns a project's change orders, oldest first.
	GetChangeOrders(ctx context.Context, companyID, projectID int) ([]ChangeOrder, error)

	// UpdateStatus moves a change order along its lifecycle, stamping
	// approved_at and signed_at on the way.
	UpdateStatus(ctx context.Context, companyID, changeOrderID int, to Status) (*ChangeOrder, error)

	// ProjectSummary returns the project's contract value revised by its
	// approved and signed change orders.
	ProjectSummary(ctx context.Context, companyID, projectID int) (*ProjectFinancials, error)
}
