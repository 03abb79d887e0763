package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the client an estimate or invoice is addressed to.
type Customer struct {
	ID        int        `json:"id"`
	CompanyID int        `json:"company_id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Address   *string    `json:"address,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CustomerInput holds the fields required to create a customer.
type CustomerInput struct {
	Code    string
	Name    string
	Email   string
	Phone   string
	Address string
}

// Project is a job site. Site coordinates drive clock-in geofencing; a
// project without them accepts clock-ins from anywhere.
type Project struct {
	ID                  int             `json:"id"`
	CompanyID           int             `json:"company_id"`
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	CustomerID          *int            `json:"customer_id,omitempty"`
	Address             *string         `json:"address,omitempty"`
	SiteLat             *float64        `json:"site_lat,omitempty"`
	SiteLng             *float64        `json:"site_lng,omitempty"`
	GeofenceRadiusMiles *float64        `json:"geofence_radius_miles,omitempty"`
	ContractValue       decimal.Decimal `json:"contract_value"`
	DeletedAt           *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// HasSite reports whether the project carries usable site coordinates.
func (p Project) HasSite() bool {
	return ValidCoordinates(p.SiteLat, p.SiteLng)
}

// ProjectInput holds the fields required to create a project.
type ProjectInput struct {
	Code                string
	Name                string
	CustomerID          *int
	Address             string
	SiteLat             *float64
	SiteLng             *float64
	GeofenceRadiusMiles *float64
	ContractValue       decimal.Decimal
}

// ProjectFinancials is a project's contract value adjusted by change orders.
type ProjectFinancials struct {
	Project         *Project          `json:"project"`
	ChangeOrders    ChangeOrderRollup `json:"change_orders"`
	RevisedContract decimal.Decimal   `json:"revised_contract_value"`
}

// CustomerService provides customer master data operations.
type CustomerService interface {
	CreateCustomer(ctx context.Context, companyID int, input CustomerInput) (*Customer, error)
	GetCustomers(ctx context.Context, companyID int) ([]Customer, error)
	GetCustomerByCode(ctx context.Context, companyID int, code string) (*Customer, error)
}

// ProjectService provides job-site operations.
type ProjectService interface {
	// CreateProject validates site coordinates when either one is given.
	CreateProject(ctx context.Context, companyID int, input ProjectInput) (*Project, error)

	// GetProject returns a project by ID, scoped to the company.
	GetProject(ctx context.Context, companyID, projectID int) (*Project, error)

	// GetProjects returns the company's live projects.
	GetProjects(ctx context.Context, companyID int) ([]Project, error)
}
