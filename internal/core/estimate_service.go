package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type estimateService struct {
	pool     *pgxpool.Pool
	settings SettingsProvider
	numbers  *NumberGenerator
}

// NewEstimateService constructs an EstimateService backed by PostgreSQL.
func NewEstimateService(pool *pgxpool.Pool, settings SettingsProvider, numbers *NumberGenerator) EstimateService {
	return &estimateService{pool: pool, settings: settings, numbers: numbers}
}

const estimateColumns = `e.id, e.company_id, e.number, e.customer_id, c.name, e.project_id, e.status,
	e.estimate_date, e.valid_until, e.tax_rate, e.subtotal, e.tax_amount, e.total, e.notes,
	jo.id, e.created_at, e.updated_at`

const estimateFrom = `
	FROM estimates e
	JOIN customers c ON c.id = e.customer_id
	LEFT JOIN job_orders jo ON jo.estimate_id = e.id`

func scanEstimate(row pgx.Row, e *Estimate) error {
	return row.Scan(&e.ID, &e.CompanyID, &e.Number, &e.CustomerID, &e.CustomerName, &e.ProjectID, &e.Status,
		&e.EstimateDate, &e.ValidUntil, &e.TaxRate, &e.Subtotal, &e.TaxAmount, &e.Total, &e.Notes,
		&e.JobOrderID, &e.CreatedAt, &e.UpdatedAt)
}

func (s *estimateService) validateRefs(ctx context.Context, q dbtx, companyID int, input EstimateInput) error {
	if err := requireOwned(ctx, q, "customers", "customer", companyID, input.CustomerID); err != nil {
		return err
	}
	if input.ProjectID != nil {
		if err := requireOwned(ctx, q, "projects", "project", companyID, *input.ProjectID); err != nil {
			return err
		}
	}
	if input.ValidUntil != nil && input.ValidUntil.Before(input.EstimateDate) {
		return invalidf("valid-until date cannot precede the estimate date")
	}
	return nil
}

// CreateEstimate creates a new draft estimate.
func (s *estimateService) CreateEstimate(ctx context.Context, companyID int, input EstimateInput) (*Estimate, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	cs, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.EstimateDate, "estimate"); err != nil {
		return nil, err
	}

	lines := withDefaultMarkup(input.Lines, cs.DefaultMarkupPct)
	totals := ComputeTotals(lines, ResolveTaxRate(cs.DefaultTaxRate, input.TaxRate))

	release, err := s.numbers.Lock(ctx, companyID, EstimateNumbers)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.validateRefs(ctx, tx, companyID, input); err != nil {
		return nil, err
	}

	number, err := s.numbers.Next(ctx, tx, companyID, EstimateNumbers)
	if err != nil {
		return nil, err
	}

	var estimateID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO estimates (company_id, number, customer_id, project_id, status, estimate_date, valid_until,
		                       tax_rate, subtotal, tax_amount, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		companyID, number, input.CustomerID, input.ProjectID, EstimateDraft,
		input.EstimateDate.Format(dateLayout), optDate(input.ValidUntil),
		totals.TaxRate, totals.Subtotal, totals.TaxAmount, totals.Total, optString(input.Notes),
	).Scan(&estimateID); err != nil {
		return nil, fmt.Errorf("insert estimate: %w", err)
	}

	if err := insertLineItems(ctx, tx, estimateLinesTable, estimateID, lines); err != nil {
		return nil, fmt.Errorf("estimate %s: %w", number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit estimate: %w", err)
	}

	return s.GetEstimate(ctx, companyID, estimateID)
}

// UpdateEstimate edits an estimate that has not been closed.
func (s *estimateService) UpdateEstimate(ctx context.Context, companyID, estimateID int, input EstimateInput) (*Estimate, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	cs, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(input.EstimateDate, "estimate"); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockEstimate(ctx, tx, companyID, estimateID)
	if err != nil {
		return nil, err
	}
	if err := gate.Enforce(current.EstimateDate, "estimate"); err != nil {
		return nil, err
	}
	if current.Status == EstimateClosed {
		return nil, invalidf("estimate %d cannot be edited: status is %s", estimateID, current.Status)
	}
	if err := s.validateRefs(ctx, tx, companyID, input); err != nil {
		return nil, err
	}

	lines := withDefaultMarkup(input.Lines, cs.DefaultMarkupPct)
	totals := ComputeTotals(lines, ResolveTaxRate(cs.DefaultTaxRate, input.TaxRate))

	if _, err := tx.Exec(ctx, `
		UPDATE estimates
		SET customer_id = $1, project_id = $2, estimate_date = $3, valid_until = $4,
		    tax_rate = $5, subtotal = $6, tax_amount = $7, total = $8, notes = $9, updated_at = NOW()
		WHERE id = $10`,
		input.CustomerID, input.ProjectID, input.EstimateDate.Format(dateLayout), optDate(input.ValidUntil),
		totals.TaxRate, totals.Subtotal, totals.TaxAmount, totals.Total, optString(input.Notes), estimateID,
	); err != nil {
		return nil, fmt.Errorf("update estimate %d: %w", estimateID, err)
	}
	if err := replaceLineItems(ctx, tx, estimateLinesTable, estimateID, lines); err != nil {
		return nil, fmt.Errorf("estimate %d: %w", estimateID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit estimate: %w", err)
	}
	return s.GetEstimate(ctx, companyID, estimateID)
}

// GetEstimate returns an estimate by ID, including all lines.
func (s *estimateService) GetEstimate(ctx context.Context, companyID, estimateID int) (*Estimate, error) {
	e := &Estimate{}
	err := scanEstimate(s.pool.QueryRow(ctx,
		"SELECT "+estimateColumns+estimateFrom+" WHERE e.id = $1 AND e.company_id = $2",
		estimateID, companyID,
	), e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("estimate", estimateID)
		}
		return nil, fmt.Errorf("get estimate %d: %w", estimateID, err)
	}

	e.Lines, err = loadLineItems(ctx, s.pool, estimateLinesTable, e.ID)
	if err != nil {
		return nil, fmt.Errorf("estimate %d: %w", estimateID, err)
	}
	return e, nil
}

// GetEstimates returns estimates for a company, optionally filtered by status.
func (s *estimateService) GetEstimates(ctx context.Context, companyID int, status Status) ([]Estimate, error) {
	query := "SELECT " + estimateColumns + estimateFrom + " WHERE e.company_id = $1"
	args := []any{companyID}
	if status != "" {
		query += " AND e.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY e.estimate_date DESC, e.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		var e Estimate
		if err := scanEstimate(rows, &e); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		estimates = append(estimates, e)
	}
	return estimates, rows.Err()
}

// UpdateStatus plans the transition, writes the new status, and executes the
// plan's follow-ups before committing.
func (s *estimateService) UpdateStatus(ctx context.Context, companyID, estimateID int, to Status) (*EstimateStatusChange, error) {
	if _, err := ParseStatus(KindEstimate, string(to)); err != nil {
		return nil, err
	}

	// Approval may open a job order, which takes a JO number.
	if to == EstimateApproved {
		release, err := s.numbers.Lock(ctx, companyID, JobOrderNumbers)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockEstimate(ctx, tx, companyID, estimateID)
	if err != nil {
		return nil, err
	}

	plan, err := PlanEstimateTransition(current.Status, to)
	if err != nil {
		return nil, fmt.Errorf("estimate %s: %w", current.Number, err)
	}

	change := &EstimateStatusChange{Plan: plan}
	if !plan.NoOp {
		if _, err := tx.Exec(ctx,
			"UPDATE estimates SET status = $1, updated_at = NOW() WHERE id = $2",
			to, estimateID,
		); err != nil {
			return nil, fmt.Errorf("update estimate %d status to %s: %w", estimateID, to, err)
		}

		for _, f := range plan.FollowUps {
			switch f {
			case FollowUpCreateJobOrder:
				jo, err := createJobOrderFromEstimate(ctx, tx, s.numbers, current)
				if err != nil {
					return nil, fmt.Errorf("estimate %s: %w", current.Number, err)
				}
				change.JobOrder = jo
			default:
				return nil, fmt.Errorf("estimate %s: unhandled follow-up %s", current.Number, f)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit estimate status: %w", err)
		}
	}

	change.Estimate, err = s.GetEstimate(ctx, companyID, estimateID)
	if err != nil {
		return nil, err
	}
	return change, nil
}

// BulkUpdateStatus applies the status to each estimate in its own transaction.
func (s *estimateService) BulkUpdateStatus(ctx context.Context, companyID int, estimateIDs []int, to Status) (*BulkResult, error) {
	if len(estimateIDs) == 0 {
		return nil, invalidf("at least one estimate is required")
	}
	if _, err := ParseStatus(KindEstimate, string(to)); err != nil {
		return nil, err
	}

	result := &BulkResult{Target: to}
	for _, id := range estimateIDs {
		change, err := s.UpdateStatus(ctx, companyID, id, to)
		if err != nil {
			result.add(BulkItemResult{ID: id, Error: err.Error()})
			continue
		}
		result.add(BulkItemResult{ID: id, Success: true, FollowUps: change.Plan.FollowUps})
	}
	return result, nil
}

// DeleteEstimate deletes an estimate; its lines go with it.
func (s *estimateService) DeleteEstimate(ctx context.Context, companyID, estimateID int) error {
	_, gate, err := loadSettingsGate(ctx, s.settings, companyID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockEstimate(ctx, tx, companyID, estimateID)
	if err != nil {
		return err
	}
	if err := gate.Enforce(current.EstimateDate, "estimate"); err != nil {
		return err
	}
	if current.JobOrderID != nil {
		return invalidf("estimate %s cannot be deleted: job order %d was opened from it", current.Number, *current.JobOrderID)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM estimates WHERE id = $1", estimateID); err != nil {
		return fmt.Errorf("delete estimate %d: %w", estimateID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit estimate delete: %w", err)
	}
	return nil
}

// lockEstimate reads an estimate header FOR UPDATE, asserting company
// ownership in the query so cross-company IDs are reported as not found.
func lockEstimate(ctx context.Context, tx pgx.Tx, companyID, estimateID int) (*Estimate, error) {
	e := &Estimate{}
	err := scanEstimate(tx.QueryRow(ctx,
		"SELECT "+estimateColumns+estimateFrom+" WHERE e.id = $1 AND e.company_id = $2 FOR UPDATE OF e",
		estimateID, companyID,
	), e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("estimate", estimateID)
		}
		return nil, fmt.Errorf("fetch estimate %d: %w", estimateID, err)
	}
	return e, nil
}
