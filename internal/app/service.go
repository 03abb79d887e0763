package app

import (
	"context"
	"time"

	"commandx/internal/ai"
	"commandx/internal/core"
)

// ApplicationService is the single interface the web and CLI adapters call.
// Every company-scoped method takes the company code and resolves it first.
// Implementations contain no presentation logic.
type ApplicationService interface {
	// LoadDefaultCompany loads the configured default company, or the only
	// company when none is configured.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// ListCompanies returns every tenant.
	ListCompanies(ctx context.Context) ([]core.Company, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns a user profile by ID.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// CreateUser hashes the password and creates an active login.
	CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error)

	GetSettings(ctx context.Context, companyCode string) (*SettingsResult, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*SettingsResult, error)

	// CheckLockedPeriod validates a record date against the company's locked
	// period. A locked date is a result, not an error.
	CheckLockedPeriod(ctx context.Context, companyCode, date, entity string) (core.ValidationResult, error)

	ListCustomers(ctx context.Context, companyCode string) ([]core.Customer, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)

	ListVendors(ctx context.Context, companyCode string) ([]core.Vendor, error)
	GetVendor(ctx context.Context, companyCode, vendorCode string) (*core.Vendor, error)
	CreateVendor(ctx context.Context, req CreateVendorRequest) (*core.Vendor, error)
	TrashVendor(ctx context.Context, companyCode, vendorCode string) error

	ListProjects(ctx context.Context, companyCode string) ([]core.Project, error)
	GetProject(ctx context.Context, companyCode string, projectID int) (*core.Project, error)
	CreateProject(ctx context.Context, req CreateProjectRequest) (*core.Project, error)

	// GetProjectFinancials returns the contract value revised by change orders.
	GetProjectFinancials(ctx context.Context, companyCode string, projectID int) (*core.ProjectFinancials, error)

	ListEstimates(ctx context.Context, companyCode, status string) ([]core.Estimate, error)
	GetEstimate(ctx context.Context, companyCode string, estimateID int) (*core.Estimate, error)
	CreateEstimate(ctx context.Context, req EstimateRequest) (*core.Estimate, error)
	UpdateEstimate(ctx context.Context, estimateID int, req EstimateRequest) (*core.Estimate, error)

	// UpdateEstimateStatus moves an estimate and runs its follow-ups.
	// Approving opens a job order.
	UpdateEstimateStatus(ctx context.Context, companyCode string, estimateID int, status string) (*core.EstimateStatusChange, error)

	// BulkUpdateEstimateStatus applies a status to each estimate on its own.
	BulkUpdateEstimateStatus(ctx context.Context, req BulkStatusRequest) (*core.BulkResult, error)

	DeleteEstimate(ctx context.Context, companyCode string, estimateID int) error

	ListJobOrders(ctx context.Context, companyCode, status string) ([]core.JobOrder, error)
	GetJobOrder(ctx context.Context, companyCode string, jobOrderID int) (*core.JobOrder, error)
	UpdateJobOrderStatus(ctx context.Context, companyCode string, jobOrderID int, status string) (*core.JobOrder, error)

	ListInvoices(ctx context.Context, req InvoiceListRequest) ([]core.Invoice, error)
	GetInvoice(ctx context.Context, companyCode string, invoiceID int) (*core.Invoice, error)
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*core.Invoice, error)
	UpdateInvoice(ctx context.Context, invoiceID int, req InvoiceRequest) (*core.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, companyCode string, invoiceID int, status string) (*core.Invoice, error)
	VoidInvoice(ctx context.Context, companyCode string, invoiceID int) (*core.Invoice, error)

	ListPurchaseOrders(ctx context.Context, req PurchaseOrderListRequest) ([]core.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, companyCode string, poID int) (*core.PurchaseOrder, error)
	CreatePurchaseOrder(ctx context.Context, req PurchaseOrderRequest) (*core.PurchaseOrder, error)
	UpdatePurchaseOrderStatus(ctx context.Context, companyCode string, poID int, status string) (*core.PurchaseOrder, error)

	// ClosePurchaseOrder closes a PO for billing. Closing with an unbilled
	// balance succeeds with a warning.
	ClosePurchaseOrder(ctx context.Context, companyCode string, poID int) (*PurchaseOrderResult, error)

	// ReopenPurchaseOrder reopens billing and puts the PO back in progress.
	ReopenPurchaseOrder(ctx context.Context, companyCode string, poID int) (*core.PurchaseOrder, error)

	AddBackCharge(ctx context.Context, req BackChargeRequest) (*core.BackCharge, error)

	ListVendorBills(ctx context.Context, companyCode string, poID int) ([]core.VendorBill, error)
	GetVendorBill(ctx context.Context, companyCode string, billID int) (*core.VendorBill, error)

	// CreateVendorBill fails with core.ErrPurchaseOrderClosed when the PO is
	// closed for billing.
	CreateVendorBill(ctx context.Context, req VendorBillRequest) (*VendorBillResult, error)
	UpdateVendorBillStatus(ctx context.Context, companyCode string, billID int, status string) (*core.VendorBill, error)

	ListChangeOrders(ctx context.Context, companyCode string, projectID int) ([]core.ChangeOrder, error)
	GetChangeOrder(ctx context.Context, companyCode string, changeOrderID int) (*core.ChangeOrder, error)
	CreateChangeOrder(ctx context.Context, req ChangeOrderRequest) (*core.ChangeOrder, error)
	UpdateChangeOrderStatus(ctx context.Context, companyCode string, changeOrderID int, status string) (*core.ChangeOrder, error)

	ListPersonnel(ctx context.Context, companyCode string, includeDeleted bool) ([]core.Personnel, error)
	GetPersonnel(ctx context.Context, companyCode string, personnelID int) (*core.Personnel, error)
	CreatePersonnel(ctx context.Context, req CreatePersonnelRequest) (*core.Personnel, error)
	UpdateCompliance(ctx context.Context, req ComplianceRequest) (*core.Personnel, error)
	AddCertification(ctx context.Context, req CertificationRequest) (*core.Certification, error)
	TrashPersonnel(ctx context.Context, companyCode string, personnelID int) error
	RestorePersonnel(ctx context.Context, companyCode string, personnelID int) (*core.Personnel, error)
	EvaluateCompliance(ctx context.Context, companyCode string, personnelID int) (*core.PersonnelCompliance, error)

	// ScanCompliance lists the company's non-compliant workers as of asOf.
	ScanCompliance(ctx context.Context, companyCode string, asOf time.Time) (*ComplianceScanResult, error)

	ClockIn(ctx context.Context, req ClockInRequest) (*core.TimeEntry, error)
	ClockOut(ctx context.Context, req ClockOutRequest) (*core.TimeEntry, error)
	ListTimeEntries(ctx context.Context, req TimeEntryListRequest) ([]core.TimeEntry, error)

	// PreviewNextNumber returns the number the next document with prefix
	// would get. Nothing is reserved.
	PreviewNextNumber(ctx context.Context, companyCode, prefix string) (*NumberPreview, error)

	// Translate fails with ErrTranslationUnavailable when no OpenAI key is
	// configured.
	Translate(ctx context.Context, req TranslateRequest) (*ai.Translation, error)
}
