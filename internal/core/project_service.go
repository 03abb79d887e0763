package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type customerService struct {
	pool *pgxpool.Pool
}

// NewCustomerService constructs a CustomerService backed by PostgreSQL.
func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

const customerColumns = "id, company_id, code, name, email, phone, address, deleted_at, created_at"

func scanCustomer(row pgx.Row, c *Customer) error {
	return row.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.DeletedAt, &c.CreatedAt)
}

func (s *customerService) CreateCustomer(ctx context.Context, companyID int, input CustomerInput) (*Customer, error) {
	if input.Code == "" || input.Name == "" {
		return nil, invalidf("customer code and name are required")
	}
	c := &Customer{}
	err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, code, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+customerColumns,
		companyID, input.Code, input.Name, optString(input.Email), optString(input.Phone), optString(input.Address),
	), c)
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", input.Code, err)
	}
	return c, nil
}

func (s *customerService) GetCustomers(ctx context.Context, companyID int) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *customerService) GetCustomerByCode(ctx context.Context, companyID int, code string) (*Customer, error) {
	c := &Customer{}
	err := scanCustomer(s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE company_id = $1 AND code = $2",
		companyID, code,
	), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", code)
		}
		return nil, fmt.Errorf("get customer %q: %w", code, err)
	}
	return c, nil
}

type projectService struct {
	pool *pgxpool.Pool
}

// NewProjectService constructs a ProjectService backed by PostgreSQL.
func NewProjectService(pool *pgxpool.Pool) ProjectService {
	return &projectService{pool: pool}
}

const projectColumns = `id, company_id, code, name, customer_id, address, site_lat, site_lng,
	geofence_radius_miles, contract_value, deleted_at, created_at`

func scanProject(row pgx.Row, p *Project) error {
	return row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.CustomerID, &p.Address, &p.SiteLat, &p.SiteLng,
		&p.GeofenceRadiusMiles, &p.ContractValue, &p.DeletedAt, &p.CreatedAt)
}

func (s *projectService) CreateProject(ctx context.Context, companyID int, input ProjectInput) (*Project, error) {
	if input.Code == "" || input.Name == "" {
		return nil, invalidf("project code and name are required")
	}
	if (input.SiteLat != nil || input.SiteLng != nil) && !ValidCoordinates(input.SiteLat, input.SiteLng) {
		return nil, fmt.Errorf("project site: %w", ErrInvalidCoordinates)
	}
	if input.GeofenceRadiusMiles != nil && *input.GeofenceRadiusMiles <= 0 {
		return nil, invalidf("geofence radius must be positive")
	}
	if input.ContractValue.IsNegative() {
		return nil, invalidf("contract value cannot be negative")
	}

	if input.CustomerID != nil {
		var ok bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL)",
			*input.CustomerID, companyID,
		).Scan(&ok); err != nil {
			return nil, fmt.Errorf("validate customer: %w", err)
		}
		if !ok {
			return nil, notFound("customer", *input.CustomerID)
		}
	}

	p := &Project{}
	err := scanProject(s.pool.QueryRow(ctx, `
		INSERT INTO projects (company_id, code, name, customer_id, address, site_lat, site_lng,
		                      geofence_radius_miles, contract_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+projectColumns,
		companyID, input.Code, input.Name, input.CustomerID, optString(input.Address),
		input.SiteLat, input.SiteLng, input.GeofenceRadiusMiles, input.ContractValue,
	), p)
	if err != nil {
		return nil, fmt.Errorf("create project %q: %w", input.Code, err)
	}
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, companyID, projectID int) (*Project, error) {
	return getProject(ctx, s.pool, companyID, projectID)
}

func getProject(ctx context.Context, q dbtx, companyID, projectID int) (*Project, error) {
	p := &Project{}
	err := scanProject(q.QueryRow(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = $1 AND company_id = $2",
		projectID, companyID,
	), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("project", projectID)
		}
		return nil, fmt.Errorf("get project %d: %w", projectID, err)
	}
	return p, nil
}

func (s *projectService) GetProjects(ctx context.Context, companyID int) ([]Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := scanProject(rows, &p); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// requireOwned checks that a row with id exists in table for the company.
func requireOwned(ctx context.Context, q dbtx, table, entity string, companyID, id int) error {
	var ok bool
	if err := q.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND company_id = $2)", table),
		id, companyID,
	).Scan(&ok); err != nil {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	if !ok {
		return notFound(entity, id)
	}
	return nil
}
