package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// closedPOSQLState is raised by the reject_bill_on_closed_po trigger.
const closedPOSQLState = "CX001"

type vendorBillService struct {
	pool     *pgxpool.Pool
	settings SettingsProvider
	numbers  *NumberGenerator
}

// NewVendorBillService constructs a VendorBillService backed by PostgreSQL.
func NewVendorBillService(pool *pgxpool.Pool, settings SettingsProvider, numbers *NumberGenerator) VendorBillService {
	return &vendorBillService{pool: pool, settings: settings, numbers: numbers}
}

const vendorBillColumns = `b.id, b.company_id, b.number, b.purchase_order_id, p.number, b.vendor_id, v.name,
	b.vendor_reference, b.status, b.bill_date, b.due_date, b.total, b.notes, b.created_at, b.updated_at`

const vendorBillFrom = `
	FROM vendor_bills b
	JOIN purchase_orders p ON p.id = b.purchase_order_id
	JOIN vendors v ON v.id = b.vendor_id`

func scanVendorBill(row pgx.Row, b *VendorBill) error {
	return row.Scan(&b.ID, &b.CompanyID, &b.Number, &b.PurchaseOrderID, &b.PONumber, &b.VendorID, &b.VendorName,
		&b.VendorReference, &b.Status, &b.BillDate, &b.DueDate, &b.Total, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
}

func (s *vendorBillService) CreateBill(ctx context.Context, companyID int, input VendorBillInput) (*VendorBill, string, error) {
	if !input.Total.IsPositive() {
		return nil, "", invalidf("bill total must be positive")
	}
	if input.DueDate != nil && input.DueDate.Before(input.BillDate) {
		return nil, "", invalidf("due date cannot precede the bill date")
	}
	_, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, "", err
	}
	if err := gate.Enforce(input.BillDate, "vendor bill"); err != nil {
		return nil, "", err
	}

	release, err := s.numbers.Lock(ctx, companyID, VendorBillNumbers)
	if err != nil {
		return nil, "", err
	}
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, companyID, input.PurchaseOrderID)
	if err != nil {
		return nil, "", err
	}
	if po.BillingStatus == BillingClosed {
		return nil, "", fmt.Errorf("purchase order %s: %w", po.Number, ErrPurchaseOrderClosed)
	}

	// Warn when this bill takes billing past the PO total
	bills, err := linkedVendorBills(ctx, tx, []int{po.ID})
	if err != nil {
		return nil, "", err
	}
	before := ComputePOBillingSummary(po.Total, bills[po.ID], nil)
	var warning string
	if after := before.Billed.Add(input.Total.Round(2)); after.GreaterThan(po.Total) {
		warning = fmt.Sprintf("vendor bills on %s total %s, exceeding the PO total %s by %s",
			po.Number, FormatMoney(after), FormatMoney(po.Total), FormatMoney(after.Sub(po.Total)))
	}

	number, err := s.numbers.Next(ctx, tx, companyID, VendorBillNumbers)
	if err != nil {
		return nil, "", err
	}

	var billID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO vendor_bills (company_id, number, purchase_order_id, vendor_id, vendor_reference, status,
		                          bill_date, due_date, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		companyID, number, po.ID, po.VendorID, optString(input.VendorReference), VendorBillOpen,
		input.BillDate.Format(dateLayout), optDate(input.DueDate), input.Total.Round(2), optString(input.Notes),
	).Scan(&billID); err != nil {
		return nil, "", mapBillInsertError(po.Number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("commit vendor bill: %w", err)
	}

	bill, err := s.GetBill(ctx, companyID, billID)
	if err != nil {
		return nil, "", err
	}
	return bill, warning, nil
}

// mapBillInsertError surfaces the closed-PO trigger as ErrPurchaseOrderClosed.
func mapBillInsertError(poNumber string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == closedPOSQLState {
		return fmt.Errorf("purchase order %s: %w", poNumber, ErrPurchaseOrderClosed)
	}
	return fmt.Errorf("insert vendor bill: %w", err)
}

func (s *vendorBillService) GetBill(ctx context.Context, companyID, billID int) (*VendorBill, error) {
	b := &VendorBill{}
	err := scanVendorBill(s.pool.QueryRow(ctx,
		"SELECT "+vendorBillColumns+vendorBillFrom+" WHERE b.id = $1 AND b.company_id = $2",
		billID, companyID,
	), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("vendor bill", billID)
		}
		return nil, fmt.Errorf("get vendor bill %d: %w", billID, err)
	}
	return b, nil
}

func (s *vendorBillService) GetBillsByPO(ctx context.Context, companyID, poID int) ([]VendorBill, error) {
	if err := requireOwned(ctx, s.pool, "purchase_orders", "purchase order", companyID, poID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+vendorBillColumns+vendorBillFrom+" WHERE b.company_id = $1 AND b.purchase_order_id = $2 ORDER BY b.bill_date, b.id",
		companyID, poID,
	)
	if err != nil {
		return nil, fmt.Errorf("query vendor bills: %w", err)
	}
	defer rows.Close()

	var bills []VendorBill
	for rows.Next() {
		var b VendorBill
		if err := scanVendorBill(rows, &b); err != nil {
			return nil, fmt.Errorf("scan vendor bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (s *vendorBillService) UpdateStatus(ctx context.Context, companyID, billID int, to Status) (*VendorBill, error) {
	if _, err := ParseStatus(KindVendorBill, string(to)); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current Status
	var number string
	if err := tx.QueryRow(ctx,
		"SELECT status, number FROM vendor_bills WHERE id = $1 AND company_id = $2 FOR UPDATE",
		billID, companyID,
	).Scan(&current, &number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("vendor bill", billID)
		}
		return nil, fmt.Errorf("fetch vendor bill %d: %w", billID, err)
	}

	plan, err := PlanTransition(KindVendorBill, current, to)
	if err != nil {
		return nil, fmt.Errorf("vendor bill %s: %w", number, err)
	}
	if !plan.NoOp {
		if _, err := tx.Exec(ctx,
			"UPDATE vendor_bills SET status = $1, updated_at = NOW() WHERE id = $2",
			to, billID,
		); err != nil {
			return nil, fmt.Errorf("update vendor bill %d status to %s: %w", billID, to, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit vendor bill status: %w", err)
		}
	}
	return s.GetBill(ctx, companyID, billID)
}
