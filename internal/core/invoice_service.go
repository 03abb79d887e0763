package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type invoiceService struct {
	pool     *pgxpool.Pool
	settings SettingsProvider
	numbers  *NumberGenerator
}

// NewInvoiceService constructs an InvoiceService backed by PostgreSQL.
func NewInvoiceService(pool *pgxpool.Pool, settings SettingsProvider, numbers *NumberGenerator) InvoiceService {
	return &invoiceService{pool: pool, settings: settings, numbers: numbers}
}

const invoiceColumns = `i.id, i.company_id, i.number, i.customer_id, c.name, i.project_id, i.job_order_id,
	i.status, i.invoice_date, i.due_date, i.tax_rate, i.subtotal, i.tax_amount, i.total, i.notes,
	i.voided_at, i.created_at, i.updated_at`

const invoiceFrom = `
	FROM invoices i
	JOIN customers c ON c.id = i.customer_id`

func scanInvoice(row pgx.Row, inv *Invoice) error {
	return row.Scan(&inv.ID, &inv.CompanyID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.ProjectID,
		&inv.JobOrderID, &inv.Status, &inv.InvoiceDate, &inv.DueDate, &inv.TaxRate, &inv.Subtotal,
		&inv.TaxAmount, &inv.Total, &inv.Notes, &inv.VoidedAt, &inv.CreatedAt, &inv.UpdatedAt)
}

// resolveRefs validates references and fills the customer from the job
// order when the caller left it out.
func (s *invoiceService) resolveRefs(ctx context.Context, q dbtx, companyID int, input *InvoiceInput) error {
	if input.JobOrderID != nil {
		var customerID int
		var projectID *int
		var status Status
		err := q.QueryRow(ctx,
			"SELECT customer_id, project_id, status FROM job_orders WHERE id = $1 AND company_id = $2",
			*input.JobOrderID, companyID,
		).Scan(&customerID, &projectID, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("job order", *input.JobOrderID)
			}
			return fmt.Errorf("validate job order: %w", err)
		}
		if status == JobOrderCancelled {
			return invalidf("job order %d is cancelled and cannot be invoiced", *input.JobOrderID)
		}
		if input.CustomerID == 0 {
			input.CustomerID = customerID
		} else if input.CustomerID != customerID {
			return invalidf("invoice customer %d does not match job order customer %d", input.CustomerID, customerID)
		}
		if input.ProjectID == nil {
			input.ProjectID = projectID
		}
	}
	if input.CustomerID == 0 {
		return invalidf("customer is required")
	}
	if err := requireOwned(ctx, q, "customers", "customer", companyID, input.CustomerID); err != nil {
		return err
	}
	if input.ProjectID != nil {
		if err := requireOwned(ctx, q, "projects", "project", companyID, *input.ProjectID); err != nil {
			return err
		}
	}
	if input.DueDate != nil && input.DueDate.Before(input.InvoiceDate) {
		return invalidf("due date cannot precede the invoice date")
	}
	return nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, companyID int, input InvoiceInput) (*Invoice, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	cs, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.InvoiceDate, "invoice"); err != nil {
		return nil, err
	}

	totals := ComputeTotals(input.Lines, ResolveTaxRate(cs.DefaultTaxRate, input.TaxRate))

	release, err := s.numbers.Lock(ctx, companyID, InvoiceNumbers)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.resolveRefs(ctx, tx, companyID, &input); err != nil {
		return nil, err
	}

	number, err := s.numbers.Next(ctx, tx, companyID, InvoiceNumbers)
	if err != nil {
		return nil, err
	}

	var invoiceID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO invoices (company_id, number, customer_id, project_id, job_order_id, status,
		                      invoice_date, due_date, tax_rate, subtotal, tax_amount, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		companyID, number, input.CustomerID, input.ProjectID, input.JobOrderID, InvoiceDraft,
		input.InvoiceDate.Format(dateLayout), optDate(input.DueDate),
		totals.TaxRate, totals.Subtotal, totals.TaxAmount, totals.Total, optString(input.Notes),
	).Scan(&invoiceID); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	if err := insertLineItems(ctx, tx, invoiceLinesTable, invoiceID, input.Lines); err != nil {
		return nil, fmt.Errorf("invoice %s: %w", number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice: %w", err)
	}
	return s.GetInvoice(ctx, companyID, invoiceID)
}

// UpdateInvoice edits a draft invoice. Sent or settled invoices are immutable.
func (s *invoiceService) UpdateInvoice(ctx context.Context, companyID, invoiceID int, input InvoiceInput) (*Invoice, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	cs, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.InvoiceDate, "invoice"); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockInvoice(ctx, tx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(current.InvoiceDate, "invoice"); err != nil {
		return nil, err
	}
	if current.Status != InvoiceDraft {
		return nil, invalidf("invoice %s cannot be edited: status is %s (must be %s)", current.Number, current.Status, InvoiceDraft)
	}
	if err := s.resolveRefs(ctx, tx, companyID, &input); err != nil {
		return nil, err
	}

	totals := ComputeTotals(input.Lines, ResolveTaxRate(cs.DefaultTaxRate, input.TaxRate))
	if _, err := tx.Exec(ctx, `
		UPDATE invoices
		SET customer_id = $1, project_id = $2, job_order_id = $3, invoice_date = $4, due_date = $5,
		    tax_rate = $6, subtotal = $7, tax_amount = $8, total = $9, notes = $10, updated_at = NOW()
		WHERE id = $11`,
		input.CustomerID, input.ProjectID, input.JobOrderID, input.InvoiceDate.Format(dateLayout), optDate(input.DueDate),
		totals.TaxRate, totals.Subtotal, totals.TaxAmount, totals.Total, optString(input.Notes), invoiceID,
	); err != nil {
		return nil, fmt.Errorf("update invoice %d: %w", invoiceID, err)
	}
	if err := replaceLineItems(ctx, tx, invoiceLinesTable, invoiceID, input.Lines); err != nil {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice: %w", err)
	}
	return s.GetInvoice(ctx, companyID, invoiceID)
}

func (s *invoiceService) GetInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error) {
	inv := &Invoice{}
	err := scanInvoice(s.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+invoiceFrom+" WHERE i.id = $1 AND i.company_id = $2",
		invoiceID, companyID,
	), inv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", invoiceID)
		}
		return nil, fmt.Errorf("get invoice %d: %w", invoiceID, err)
	}
	inv.Lines, err = loadLineItems(ctx, s.pool, invoiceLinesTable, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, err)
	}
	return inv, nil
}

func (s *invoiceService) GetInvoices(ctx context.Context, companyID int, filter InvoiceFilter) ([]Invoice, error) {
	query := "SELECT " + invoiceColumns + invoiceFrom + " WHERE i.company_id = $1"
	args := []any{companyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	if filter.JobOrderID != 0 {
		args = append(args, filter.JobOrderID)
		query += fmt.Sprintf(" AND i.job_order_id = $%d", len(args))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND i.customer_id = $%d", len(args))
	}
	query += " ORDER BY i.invoice_date DESC, i.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) UpdateStatus(ctx context.Context, companyID, invoiceID int, to Status) (*Invoice, error) {
	if _, err := ParseStatus(KindInvoice, string(to)); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockInvoice(ctx, tx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}

	plan, err := PlanTransition(KindInvoice, current.Status, to)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", current.Number, err)
	}
	if !plan.NoOp {
		if _, err := tx.Exec(ctx, `
			UPDATE invoices
			SET status = $1,
			    voided_at = CASE WHEN $1 = 'void' THEN NOW() ELSE voided_at END,
			    updated_at = NOW()
			WHERE id = $2`,
			string(to), invoiceID,
		); err != nil {
			return nil, fmt.Errorf("update invoice %d status to %s: %w", invoiceID, to, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit invoice status: %w", err)
		}
	}
	return s.GetInvoice(ctx, companyID, invoiceID)
}

func (s *invoiceService) VoidInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error) {
	return s.UpdateStatus(ctx, companyID, invoiceID, InvoiceVoid)
}

func lockInvoice(ctx context.Context, tx pgx.Tx, companyID, invoiceID int) (*Invoice, error) {
	inv := &Invoice{}
	err := scanInvoice(tx.QueryRow(ctx,
		"SELECT "+invoiceColumns+invoiceFrom+" WHERE i.id = $1 AND i.company_id = $2 FOR UPDATE OF i",
		invoiceID, companyID,
	), inv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", invoiceID)
		}
		return nil, fmt.Errorf("fetch invoice %d: %w", invoiceID, err)
	}
	return inv, nil
}
