package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type jobOrderService struct {
	pool *pgxpool.Pool
}

// NewJobOrderService constructs a JobOrderService backed by PostgreSQL.
func NewJobOrderService(pool *pgxpool.Pool) JobOrderService {
	return &jobOrderService{pool: pool}
}

const jobOrderColumns = `j.id, j.company_id, j.number, j.estimate_id, j.customer_id, c.name, j.project_id,
	j.status, j.total, j.start_date, j.created_at, j.updated_at`

const jobOrderFrom = `
	FROM job_orders j
	JOIN customers c ON c.id = j.customer_id`

func scanJobOrder(row pgx.Row, j *JobOrder) error {
	return row.Scan(&j.ID, &j.CompanyID, &j.Number, &j.EstimateID, &j.CustomerID, &j.CustomerName, &j.ProjectID,
		&j.Status, &j.Total, &j.StartDate, &j.CreatedAt, &j.UpdatedAt)
}

func (s *jobOrderService) GetJobOrder(ctx context.Context, companyID, jobOrderID int) (*JobOrder, error) {
	j := &JobOrder{}
	err := scanJobOrder(s.pool.QueryRow(ctx,
		"SELECT "+jobOrderColumns+jobOrderFrom+" WHERE j.id = $1 AND j.company_id = $2",
		jobOrderID, companyID,
	), j)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("job order", jobOrderID)
		}
		return nil, fmt.Errorf("get job order %d: %w", jobOrderID, err)
	}

	invoices, err := linkedInvoices(ctx, s.pool, []int{j.ID})
	if err != nil {
		return nil, err
	}
	j.Progress = ComputeJobOrderProgress(j.Total, invoices[j.ID])
	return j, nil
}

func (s *jobOrderService) GetJobOrders(ctx context.Context, companyID int, status Status) ([]JobOrder, error) {
	query := "SELECT " + jobOrderColumns + jobOrderFrom + " WHERE j.company_id = $1"
	args := []any{companyID}
	if status != "" {
		query += " AND j.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY j.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job orders: %w", err)
	}
	defer rows.Close()

	var orders []JobOrder
	var ids []int
	for rows.Next() {
		var j JobOrder
		if err := scanJobOrder(rows, &j); err != nil {
			return nil, fmt.Errorf("scan job order: %w", err)
		}
		orders = append(orders, j)
		ids = append(ids, j.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query job orders: %w", err)
	}

	invoices, err := linkedInvoices(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Progress = ComputeJobOrderProgress(orders[i].Total, invoices[orders[i].ID])
	}
	return orders, nil
}

func (s *jobOrderService) UpdateStatus(ctx context.Context, companyID, jobOrderID int, to Status) (*JobOrder, error) {
	if _, err := ParseStatus(KindJobOrder, string(to)); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current Status
	if err := tx.QueryRow(ctx,
		"SELECT status FROM job_orders WHERE id = $1 AND company_id = $2 FOR UPDATE",
		jobOrderID, companyID,
	).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("job order", jobOrderID)
		}
		return nil, fmt.Errorf("fetch job order %d: %w", jobOrderID, err)
	}

	plan, err := PlanTransition(KindJobOrder, current, to)
	if err != nil {
		return nil, fmt.Errorf("job order %d: %w", jobOrderID, err)
	}
	if !plan.NoOp {
		if _, err := tx.Exec(ctx,
			"UPDATE job_orders SET status = $1, updated_at = NOW() WHERE id = $2",
			to, jobOrderID,
		); err != nil {
			return nil, fmt.Errorf("update job order %d status to %s: %w", jobOrderID, to, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit job order status: %w", err)
		}
	}
	return s.GetJobOrder(ctx, companyID, jobOrderID)
}

// createJobOrderFromEstimate opens a job order for an approved estimate inside
// the caller's transaction. An estimate that already has a job order (for
// example one approved, sent back, and approved again) keeps it.
func createJobOrderFromEstimate(ctx context.Context, tx pgx.Tx, numbers *NumberGenerator, est *Estimate) (*JobOrder, error) {
	if est.JobOrderID != nil {
		return getJobOrderTx(ctx, tx, est.CompanyID, *est.JobOrderID)
	}

	number, err := numbers.Next(ctx, tx, est.CompanyID, JobOrderNumbers)
	if err != nil {
		return nil, err
	}

	var jobOrderID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO job_orders (company_id, number, estimate_id, customer_id, project_id, status, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		est.CompanyID, number, est.ID, est.CustomerID, est.ProjectID, JobOrderActive, est.Total,
	).Scan(&jobOrderID); err != nil {
		return nil, fmt.Errorf("create job order: %w", err)
	}
	return getJobOrderTx(ctx, tx, est.CompanyID, jobOrderID)
}

func getJobOrderTx(ctx context.Context, tx pgx.Tx, companyID, jobOrderID int) (*JobOrder, error) {
	j := &JobOrder{}
	if err := scanJobOrder(tx.QueryRow(ctx,
		"SELECT "+jobOrderColumns+jobOrderFrom+" WHERE j.id = $1 AND j.company_id = $2",
		jobOrderID, companyID,
	), j); err != nil {
		return nil, fmt.Errorf("read job order %d: %w", jobOrderID, err)
	}
	j.Progress = ComputeJobOrderProgress(j.Total, nil)
	return j, nil
}

// linkedInvoices loads invoice totals and statuses grouped by job order.
func linkedInvoices(ctx context.Context, q dbtx, jobOrderIDs []int) (map[int][]Billed, error) {
	out := make(map[int][]Billed, len(jobOrderIDs))
	if len(jobOrderIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx,
		"SELECT job_order_id, total, status FROM invoices WHERE job_order_id = ANY($1)",
		jobOrderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query linked invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var b Billed
		if err := rows.Scan(&id, &b.Total, &b.Status); err != nil {
			return nil, fmt.Errorf("scan linked invoice: %w", err)
		}
		out[id] = append(out[id], b)
	}
	return out, rows.Err()
}
