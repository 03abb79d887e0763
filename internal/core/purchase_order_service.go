package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type purchaseOrderService struct {
	pool     *pgxpool.Pool
	settings SettingsProvider
	numbers  *NumberGenerator
}

// NewPurchaseOrderService constructs a PurchaseOrderService backed by PostgreSQL.
func NewPurchaseOrderService(pool *pgxpool.Pool, settings SettingsProvider, numbers *NumberGenerator) PurchaseOrderService {
	return &purchaseOrderService{pool: pool, settings: settings, numbers: numbers}
}

const purchaseOrderColumns = `p.id, p.company_id, p.number, p.vendor_id, v.name, p.project_id, p.job_order_id,
	p.status, p.billing_status, p.po_date, p.expected_delivery_date, p.tax_rate, p.subtotal, p.tax_amount,
	p.total, p.notes, p.closed_at, p.created_at, p.updated_at`

const purchaseOrderFrom = `
	FROM purchase_orders p
	JOIN vendors v ON v.id = p.vendor_id`

func scanPurchaseOrder(row pgx.Row, po *PurchaseOrder) error {
	return row.Scan(&po.ID, &po.CompanyID, &po.Number, &po.VendorID, &po.VendorName, &po.ProjectID, &po.JobOrderID,
		&po.Status, &po.BillingStatus, &po.PODate, &po.ExpectedDeliveryDate, &po.TaxRate, &po.Subtotal, &po.TaxAmount,
		&po.Total, &po.Notes, &po.ClosedAt, &po.CreatedAt, &po.UpdatedAt)
}

// CreatePO creates a new draft purchase order with computed line totals.
func (s *purchaseOrderService) CreatePO(ctx context.Context, companyID int, input PurchaseOrderInput) (*PurchaseOrder, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, fmt.Errorf("purchase order: %w", err)
	}
	cs, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.PODate, "purchase order"); err != nil {
		return nil, err
	}
	if input.ExpectedDeliveryDate != nil && input.ExpectedDeliveryDate.Before(input.PODate) {
		return nil, fmt.Errorf("expected delivery date cannot precede the PO date")
	}

	totals := ComputeTotals(input.Lines, ResolveTaxRate(cs.DefaultTaxRate, input.TaxRate))

	release, err := s.numbers.Lock(ctx, companyID, PurchaseOrderNumbers)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Vendor must belong to this company and not be trashed
	var vendorExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM vendors WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL)",
		input.VendorID, companyID,
	).Scan(&vendorExists); err != nil {
		return nil, fmt.Errorf("validate vendor: %w", err)
	}
	if !vendorExists {
		return nil, notFound("vendor", input.VendorID)
	}
	if input.ProjectID != nil {
		if err := requireOwned(ctx, tx, "projects", "project", companyID, *input.ProjectID); err != nil {
			return nil, err
		}
	}
	if input.JobOrderID != nil {
		if err := requireOwned(ctx, tx, "job_orders", "job order", companyID, *input.JobOrderID); err != nil {
			return nil, err
		}
	}

	number, err := s.numbers.Next(ctx, tx, companyID, PurchaseOrderNumbers)
	if err != nil {
		return nil, err
	}

	var poID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (company_id, number, vendor_id, project_id, job_order_id, status, billing_status,
		                             po_date, expected_delivery_date, tax_rate, subtotal, tax_amount, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		companyID, number, input.VendorID, input.ProjectID, input.JobOrderID, PODraft, BillingOpen,
		input.PODate.Format(dateLayout), optDate(input.ExpectedDeliveryDate),
		totals.TaxRate, totals.Subtotal, totals.TaxAmount, totals.Total, optString(input.Notes),
	).Scan(&poID); err != nil {
		return nil, fmt.Errorf("insert purchase order: %w", err)
	}

	if err := insertLineItems(ctx, tx, purchaseOrderLinesTable, poID, input.Lines); err != nil {
		return nil, fmt.Errorf("purchase order %s: %w", number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order: %w", err)
	}
	return s.GetPO(ctx, companyID, poID)
}

// GetPO returns a purchase order by its internal ID, including lines,
// back charges, and the billing rollup.
func (s *purchaseOrderService) GetPO(ctx context.Context, companyID, poID int) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	err := scanPurchaseOrder(s.pool.QueryRow(ctx,
		"SELECT "+purchaseOrderColumns+purchaseOrderFrom+" WHERE p.id = $1 AND p.company_id = $2",
		poID, companyID,
	), po)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("purchase order", poID)
		}
		return nil, fmt.Errorf("get purchase order %d: %w", poID, err)
	}

	if po.Lines, err = loadLineItems(ctx, s.pool, purchaseOrderLinesTable, po.ID); err != nil {
		return nil, fmt.Errorf("purchase order %d: %w", poID, err)
	}
	if po.BackCharges, err = loadBackCharges(ctx, s.pool, po.ID); err != nil {
		return nil, err
	}
	bills, err := linkedVendorBills(ctx, s.pool, []int{po.ID})
	if err != nil {
		return nil, err
	}
	po.Billing = ComputePOBillingSummary(po.Total, bills[po.ID], backChargeAmounts(po.BackCharges))
	return po, nil
}

// GetPOs returns purchase orders for a company, optionally filtered.
func (s *purchaseOrderService) GetPOs(ctx context.Context, companyID int, filter PurchaseOrderFilter) ([]PurchaseOrder, error) {
	query := "SELECT " + purchaseOrderColumns + purchaseOrderFrom + " WHERE p.company_id = $1"
	args := []any{companyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.BillingStatus != "" {
		args = append(args, filter.BillingStatus)
		query += fmt.Sprintf(" AND p.billing_status = $%d", len(args))
	}
	if filter.VendorID != 0 {
		args = append(args, filter.VendorID)
		query += fmt.Sprintf(" AND p.vendor_id = $%d", len(args))
	}
	if filter.ProjectID != 0 {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND p.project_id = $%d", len(args))
	}
	query += " ORDER BY p.po_date DESC, p.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	var ids []int
	for rows.Next() {
		var po PurchaseOrder
		if err := scanPurchaseOrder(rows, &po); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, po)
		ids = append(ids, po.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}

	bills, err := linkedVendorBills(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	charges, err := backChargeTotals(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		id := orders[i].ID
		orders[i].Billing = ComputePOBillingSummary(orders[i].Total, bills[id], charges[id])
	}
	return orders, nil
}

func (s *purchaseOrderService) UpdateStatus(ctx context.Context, companyID, poID int, to Status) (*PurchaseOrder, error) {
	if _, err := ParseStatus(KindPurchaseOrder, string(to)); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockPurchaseOrder(ctx, tx, companyID, poID)
	if err != nil {
		return nil, err
	}

	plan, err := PlanTransition(KindPurchaseOrder, current.Status, to)
	if err != nil {
		return nil, fmt.Errorf("purchase order %s: %w", current.Number, err)
	}
	if plan.NoOp {
		return s.GetPO(ctx, companyID, poID)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE id = $2",
		to, poID,
	); err != nil {
		return nil, fmt.Errorf("update PO %d status to %s: %w", poID, to, err)
	}
	if plan.Has(FollowUpCloseBilling) && current.BillingStatus != BillingClosed {
		if err := closeBillingTx(ctx, tx, poID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit PO status: %w", err)
	}
	return s.GetPO(ctx, companyID, poID)
}

func (s *purchaseOrderService) ClosePO(ctx context.Context, companyID, poID int) (*PurchaseOrder, string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockPurchaseOrder(ctx, tx, companyID, poID)
	if err != nil {
		return nil, "", err
	}
	if current.BillingStatus != BillingClosed {
		if err := closeBillingTx(ctx, tx, poID); err != nil {
			return nil, "", err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, "", fmt.Errorf("commit PO close: %w", err)
		}
	}

	po, err := s.GetPO(ctx, companyID, poID)
	if err != nil {
		return nil, "", err
	}
	return po, ClosePOWarning(po.Billing), nil
}

func (s *purchaseOrderService) ReopenPO(ctx context.Context, companyID, poID int) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockPurchaseOrder(ctx, tx, companyID, poID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1, billing_status = $2, closed_at = NULL, updated_at = NOW()
		WHERE id = $3`,
		ReopenedPOStatus, BillingOpen, poID,
	); err != nil {
		return nil, fmt.Errorf("reopen PO %d: %w", poID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit PO reopen: %w", err)
	}
	return s.GetPO(ctx, companyID, poID)
}

func (s *purchaseOrderService) AddBackCharge(ctx context.Context, companyID, poID int, input BackChargeInput) (*BackCharge, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("back charge amount must be positive")
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("back charge reason is required")
	}
	_, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.ChargeDate, "back charge"); err != nil {
		return nil, err
	}

	if err := requireOwned(ctx, s.pool, "purchase_orders", "purchase order", companyID, poID); err != nil {
		return nil, err
	}

	bc := &BackCharge{}
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO po_back_charges (purchase_order_id, amount, reason, charge_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, purchase_order_id, amount, reason, charge_date, created_at`,
		poID, input.Amount.Round(2), input.Reason, input.ChargeDate.Format(dateLayout),
	).Scan(&bc.ID, &bc.PurchaseOrderID, &bc.Amount, &bc.Reason, &bc.ChargeDate, &bc.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert back charge: %w", err)
	}
	return bc, nil
}

func (s *purchaseOrderService) BillingSummary(ctx context.Context, companyID, poID int) (POBillingSummary, error) {
	po, err := s.GetPO(ctx, companyID, poID)
	if err != nil {
		return POBillingSummary{}, err
	}
	return po.Billing, nil
}

func lockPurchaseOrder(ctx context.Context, tx pgx.Tx, companyID, poID int) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	err := scanPurchaseOrder(tx.QueryRow(ctx,
		"SELECT "+purchaseOrderColumns+purchaseOrderFrom+" WHERE p.id = $1 AND p.company_id = $2 FOR UPDATE OF p",
		poID, companyID,
	), po)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("purchase order", poID)
		}
		return nil, fmt.Errorf("fetch purchase order %d: %w", poID, err)
	}
	return po, nil
}

func closeBillingTx(ctx context.Context, tx pgx.Tx, poID int) error {
	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET billing_status = $1, closed_at = $2, updated_at = NOW()
		WHERE id = $3`,
		BillingClosed, time.Now().UTC(), poID,
	); err != nil {
		return fmt.Errorf("close PO %d for billing: %w", poID, err)
	}
	return nil
}

func loadBackCharges(ctx context.Context, q dbtx, poID int) ([]BackCharge, error) {
	rows, err := q.Query(ctx, `
		SELECT id, purchase_order_id, amount, reason, charge_date, created_at
		FROM po_back_charges
		WHERE purchase_order_id = $1
		ORDER BY charge_date, id`,
		poID,
	)
	if err != nil {
		return nil, fmt.Errorf("query back charges: %w", err)
	}
	defer rows.Close()

	var charges []BackCharge
	for rows.Next() {
		var bc BackCharge
		if err := rows.Scan(&bc.ID, &bc.PurchaseOrderID, &bc.Amount, &bc.Reason, &bc.ChargeDate, &bc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan back charge: %w", err)
		}
		charges = append(charges, bc)
	}
	return charges, rows.Err()
}

func backChargeAmounts(charges []BackCharge) []decimal.Decimal {
	out := make([]decimal.Decimal, len(charges))
	for i, c := range charges {
		out[i] = c.Amount
	}
	return out
}

// backChargeTotals loads back-charge amounts grouped by purchase order.
func backChargeTotals(ctx context.Context, q dbtx, poIDs []int) (map[int][]decimal.Decimal, error) {
	out := make(map[int][]decimal.Decimal, len(poIDs))
	if len(poIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx,
		"SELECT purchase_order_id, amount FROM po_back_charges WHERE purchase_order_id = ANY($1)",
		poIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query back charges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var amount decimal.Decimal
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("scan back charge: %w", err)
		}
		out[id] = append(out[id], amount)
	}
	return out, rows.Err()
}

// linkedVendorBills loads vendor bill totals and statuses grouped by PO.
func linkedVendorBills(ctx context.Context, q dbtx, poIDs []int) (map[int][]Billed, error) {
	out := make(map[int][]Billed, len(poIDs))
	if len(poIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx,
		"SELECT purchase_order_id, total, status FROM vendor_bills WHERE purchase_order_id = ANY($1)",
		poIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query vendor bills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var b Billed
		if err := rows.Scan(&id, &b.Total, &b.Status); err != nil {
			return nil, fmt.Errorf("scan vendor bill: %w", err)
		}
		out[id] = append(out[id], b)
	}
	return out, rows.Err()
}
