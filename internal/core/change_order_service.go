package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type changeOrderService struct {
	pool     *pgxpool.Pool
	settings SettingsProvider
	numbers  *NumberGenerator
}

// NewChangeOrderService constructs a ChangeOrderService backed by PostgreSQL.
func NewChangeOrderService(pool *pgxpool.Pool, settings SettingsProvider, numbers *NumberGenerator) ChangeOrderService {
	return &changeOrderService{pool: pool, settings: settings, numbers: numbers}
}

const changeOrderColumns = `id, company_id, number, project_id, job_order_id, change_type, status, change_date,
	description, reason, tax_rate, subtotal, tax_amount, total, approved_at, signed_at, created_at, updated_at`

func scanChangeOrder(row pgx.Row, co *ChangeOrder) error {
	return row.Scan(&co.ID, &co.CompanyID, &co.Number, &co.ProjectID, &co.JobOrderID, &co.ChangeType, &co.Status,
		&co.ChangeDate, &co.Description, &co.Reason, &co.TaxRate, &co.Subtotal, &co.TaxAmount, &co.Total,
		&co.ApprovedAt, &co.SignedAt, &co.CreatedAt, &co.UpdatedAt)
}

func (s *changeOrderService) CreateChangeOrder(ctx context.Context, companyID int, input ChangeOrderInput) (*ChangeOrder, error) {
	if _, err := ParseChangeType(string(input.ChangeType)); err != nil {
		return nil, err
	}
	if input.Description == "" {
		return nil, fmt.Errorf("change order description is required")
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, fmt.Errorf("change order: %w", err)
	}
	cs, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.ChangeDate, "change order"); err != nil {
		return nil, err
	}

	lines := withDefaultMarkup(input.Lines, cs.DefaultMarkupPct)
	totals := ComputeTotals(lines, ResolveTaxRate(cs.DefaultTaxRate, input.TaxRate))

	release, err := s.numbers.Lock(ctx, companyID, ChangeOrderNumbers)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := requireOwned(ctx, tx, "projects", "project", companyID, input.ProjectID); err != nil {
		return nil, err
	}
	if input.JobOrderID != nil {
		if err := requireOwned(ctx, tx, "job_orders", "job order", companyID, *input.JobOrderID); err != nil {
			return nil, err
		}
	}

	number, err := s.numbers.Next(ctx, tx, companyID, ChangeOrderNumbers)
	if err != nil {
		return nil, err
	}

	var coID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO change_orders (company_id, number, project_id, job_order_id, change_type, status, change_date,
		                           description, reason, tax_rate, subtotal, tax_amount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		companyID, number, input.ProjectID, input.JobOrderID, input.ChangeType, ChangeOrderDraft,
		input.ChangeDate.Format(dateLayout), input.Description, optString(input.Reason),
		totals.TaxRate, totals.Subtotal, totals.TaxAmount, totals.Total,
	).Scan(&coID); err != nil {
		return nil, fmt.Errorf("insert change order: %w", err)
	}

	if err := insertLineItems(ctx, tx, changeOrderLinesTable, coID, lines); err != nil {
		return nil, fmt.Errorf("change order %s: %w", number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit change order: %w", err)
	}
	return s.GetChangeOrder(ctx, companyID, coID)
}

func (s *changeOrderService) GetChangeOrder(ctx context.Context, companyID, changeOrderID int) (*ChangeOrder, error) {
	co := &ChangeOrder{}
	err := scanChangeOrder(s.pool.QueryRow(ctx,
		"SELECT "+changeOrderColumns+" FROM change_orders WHERE id = $1 AND company_id = $2",
		changeOrderID, companyID,
	), co)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("change order", changeOrderID)
		}
		return nil, fmt.Errorf("get change order %d: %w", changeOrderID, err)
	}
	if co.Lines, err = loadLineItems(ctx, s.pool, changeOrderLinesTable, co.ID); err != nil {
		return nil, fmt.Errorf("change order %d: %w", changeOrderID, err)
	}
	return co, nil
}

func (s *changeOrderService) GetChangeOrders(ctx context.Context, companyID, projectID int) ([]ChangeOrder, error) {
	return listChangeOrders(ctx, s.pool, companyID, projectID)
}

func listChangeOrders(ctx context.Context, q dbtx, companyID, projectID int) ([]ChangeOrder, error) {
	rows, err := q.Query(ctx, `
		SELECT `+changeOrderColumns+`
		FROM change_orders
		WHERE company_id = $1 AND project_id = $2
		ORDER BY change_date, id`,
		companyID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query change orders: %w", err)
	}
	defer rows.Close()

	var orders []ChangeOrder
	for rows.Next() {
		var co ChangeOrder
		if err := scanChangeOrder(rows, &co); err != nil {
			return nil, fmt.Errorf("scan change order: %w", err)
		}
		orders = append(orders, co)
	}
	return orders, rows.Err()
}

func (s *changeOrderService) UpdateStatus(ctx context.Context, companyID, changeOrderID int, to Status) (*ChangeOrder, error) {
	if _, err := ParseStatus(KindChangeOrder, string(to)); err != nil {
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
		"SELECT status, number FROM change_orders WHERE id = $1 AND company_id = $2 FOR UPDATE",
		changeOrderID, companyID,
	).Scan(&current, &number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("change order", changeOrderID)
		}
		return nil, fmt.Errorf("fetch change order %d: %w", changeOrderID, err)
	}

	plan, err := PlanTransition(KindChangeOrder, current, to)
	if err != nil {
		return nil, fmt.Errorf("change order %s: %w", number, err)
	}
	if !plan.NoOp {
		// Rejecting or sending back to draft clears a previous approval.
		if _, err := tx.Exec(ctx, `
			UPDATE change_orders
			SET status = $1,
			    approved_at = CASE
			        WHEN $1 = 'approved' THEN NOW()
			        WHEN $1 IN ('draft', 'rejected') THEN NULL
			        ELSE approved_at END,
			    signed_at = CASE WHEN $1 = 'signed' THEN NOW() ELSE signed_at END,
			    updated_at = NOW()
			WHERE id = $2`,
			string(to), changeOrderID,
		); err != nil {
			return nil, fmt.Errorf("update change order %d status to %s: %w", changeOrderID, to, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit change order status: %w", err)
		}
	}
	return s.GetChangeOrder(ctx, companyID, changeOrderID)
}

func (s *changeOrderService) ProjectSummary(ctx context.Context, companyID, projectID int) (*ProjectFinancials, error) {
	project, err := getProject(ctx, s.pool, companyID, projectID)
	if err != nil {
		return nil, err
	}
	orders, err := listChangeOrders(ctx, s.pool, companyID, projectID)
	if err != nil {
		return nil, err
	}

	amounts := make([]ChangeOrderAmount, len(orders))
	for i, co := range orders {
		amounts[i] = co.Amount()
	}
	rollup := ComputeChangeOrderRollup(amounts)
	return &ProjectFinancials{
		Project:         project,
		ChangeOrders:    rollup,
		RevisedContract: project.ContractValue.Add(rollup.ApprovedValue),
	}, nil
}
