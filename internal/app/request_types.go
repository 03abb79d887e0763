package app

import (
	"github.com/shopspring/decimal"
)

// Dates in requests are calendar dates in YYYY-MM-DD form. CompanyCode is
// always taken from the route, never from the body.

// LineInput is one priced line on an estimate, invoice, purchase order, or
// change order. Setting UnitCost makes the line cost-plus.
type LineInput struct {
	Description   string           `json:"description" validate:"required,max=500"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	MarkupPercent *decimal.Decimal `json:"markup_percent,omitempty"`
}

// CreateUserRequest is the input for creating a login.
type CreateUserRequest struct {
	CompanyCode string `json:"-" validate:"required"`
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"omitempty,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"omitempty,oneof=admin member"`
}

// UpdateSettingsRequest changes company settings. Omitted fields are kept.
type UpdateSettingsRequest struct {
	CompanyCode         string           `json:"-" validate:"required"`
	LockedPeriodDate    *string          `json:"locked_period_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearLockedPeriod   bool             `json:"clear_locked_period"`
	LockedPeriodEnabled *bool            `json:"locked_period_enabled,omitempty"`
	DefaultTaxRate      *decimal.Decimal `json:"default_tax_rate,omitempty"`
	DefaultMarkupPct    *decimal.Decimal `json:"default_markup_percent,omitempty"`
	GeofenceRadiusMiles *float64         `json:"geofence_radius_miles,omitempty" validate:"omitempty,gt=0"`
	Timezone            *string          `json:"timezone,omitempty"`
}

// CreateCustomerRequest is the input for creating a customer.
type CreateCustomerRequest struct {
	CompanyCode string `json:"-" validate:"required"`
	Code        string `json:"code" validate:"required,max=32"`
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Address     string `json:"address"`
}

// CreateVendorRequest is the input for creating a vendor.
type CreateVendorRequest struct {
	CompanyCode      string `json:"-" validate:"required"`
	Code             string `json:"code" validate:"required,max=32"`
	Name             string `json:"name" validate:"required,max=200"`
	ContactPerson    string `json:"contact_person"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone" validate:"omitempty,phone"`
	Address          string `json:"address"`
	Trade            string `json:"trade"`
	PaymentTermsDays int    `json:"payment_terms_days" validate:"gte=0,lte=365"`
}

// CreateProjectRequest is the input for creating a job site.
type CreateProjectRequest struct {
	CompanyCode         string          `json:"-" validate:"required"`
	Code                string          `json:"code" validate:"required,max=32"`
	Name                string          `json:"name" validate:"required,max=200"`
	CustomerCode        string          `json:"customer_code"`
	Address             string          `json:"address"`
	SiteLat             *float64        `json:"site_lat,omitempty" validate:"omitempty,latitude"`
	SiteLng             *float64        `json:"site_lng,omitempty" validate:"omitempty,longitude"`
	GeofenceRadiusMiles *float64        `json:"geofence_radius_miles,omitempty" validate:"omitempty,gt=0"`
	ContractValue       decimal.Decimal `json:"contract_value"`
}

// EstimateRequest is the input for creating or editing an estimate.
type EstimateRequest struct {
	CompanyCode  string           `json:"-" validate:"required"`
	CustomerCode string           `json:"customer_code" validate:"required"`
	ProjectID    *int             `json:"project_id,omitempty"`
	EstimateDate string           `json:"estimate_date" validate:"required,datetime=2006-01-02"`
	ValidUntil   string           `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	TaxRate      *decimal.Decimal `json:"tax_rate,omitempty"`
	Notes        string           `json:"notes"`
	Lines        []LineInput      `json:"lines" validate:"required,min=1,dive"`
}

// BulkStatusRequest moves several estimates to one status.
type BulkStatusRequest struct {
	CompanyCode string `json:"-" validate:"required"`
	IDs         []int  `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
	Status      string `json:"status" validate:"required"`
}

// InvoiceRequest is the input for creating or editing an invoice. When
// JobOrderID is set the customer and project default to the job order's.
type InvoiceRequest struct {
	CompanyCode  string           `json:"-" validate:"required"`
	CustomerCode string           `json:"customer_code" validate:"required_without=JobOrderID"`
	ProjectID    *int             `json:"project_id,omitempty"`
	JobOrderID   *int             `json:"job_order_id,omitempty"`
	InvoiceDate  string           `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	DueDate      string           `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	TaxRate      *decimal.Decimal `json:"tax_rate,omitempty"`
	Notes        string           `json:"notes"`
	Lines        []LineInput      `json:"lines" validate:"required,min=1,dive"`
}

// InvoiceListRequest filters the invoice list.
type InvoiceListRequest struct {
	CompanyCode  string
	Status       string
	JobOrderID   int
	CustomerCode string
}

// PurchaseOrderRequest is the input for creating a purchase order.
type PurchaseOrderRequest struct {
	CompanyCode          string           `json:"-" validate:"required"`
	VendorCode           string           `json:"vendor_code" validate:"required"`
	ProjectID            *int             `json:"project_id,omitempty"`
	JobOrderID           *int             `json:"job_order_id,omitempty"`
	PODate               string           `json:"po_date" validate:"required,datetime=2006-01-02"`
	ExpectedDeliveryDate string           `json:"expected_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	TaxRate              *decimal.Decimal `json:"tax_rate,omitempty"`
	Notes                string           `json:"notes"`
	Lines                []LineInput      `json:"lines" validate:"required,min=1,dive"`
}

// PurchaseOrderListRequest filters the purchase order list.
type PurchaseOrderListRequest struct {
	CompanyCode   string
	Status        string
	BillingStatus string
	VendorCode    string
	ProjectID     int
}

// BackChargeRequest records a deduction against a purchase order.
type BackChargeRequest struct {
	CompanyCode string          `json:"-" validate:"required"`
	POID        int             `json:"-" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason" validate:"required,max=500"`
	ChargeDate  string          `json:"charge_date" validate:"required,datetime=2006-01-02"`
}

// VendorBillRequest records a vendor bill against a purchase order.
type VendorBillRequest struct {
	CompanyCode     string          `json:"-" validate:"required"`
	POID            int             `json:"purchase_order_id" validate:"required,gt=0"`
	VendorReference string          `json:"vendor_reference" validate:"max=100"`
	BillDate        string          `json:"bill_date" validate:"required,datetime=2006-01-02"`
	DueDate         string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes"`
}

// ChangeOrderRequest is the input for creating a change order.
type ChangeOrderRequest struct {
	CompanyCode string           `json:"-" validate:"required"`
	ProjectID   int              `json:"project_id" validate:"required,gt=0"`
	JobOrderID  *int             `json:"job_order_id,omitempty"`
	ChangeType  string           `json:"change_type" validate:"required,oneof=additive deductive"`
	ChangeDate  string           `json:"change_date" validate:"required,datetime=2006-01-02"`
	Description string           `json:"description" validate:"required,max=1000"`
	Reason      string           `json:"reason"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	Lines       []LineInput      `json:"lines" validate:"required,min=1,dive"`
}

// CreatePersonnelRequest is the input for adding a worker.
type CreatePersonnelRequest struct {
	CompanyCode string           `json:"-" validate:"required"`
	FirstName   string           `json:"first_name" validate:"required,max=100"`
	LastName    string           `json:"last_name" validate:"required,max=100"`
	Email       string           `json:"email" validate:"omitempty,email"`
	Phone       string           `json:"phone" validate:"omitempty,phone"`
	JobTitle    string           `json:"job_title"`
	HireDate    string           `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate,omitempty"`
}

// ComplianceRequest updates a worker's E-Verify, work authorization, and
// I-9 fields. Omitted fields are kept.
type ComplianceRequest struct {
	CompanyCode       string  `json:"-" validate:"required"`
	PersonnelID       int     `json:"-" validate:"required"`
	EVerifyStatus     *string `json:"everify_status,omitempty" validate:"omitempty,oneof=pending verified rejected expired"`
	EVerifyCaseNumber *string `json:"everify_case_number,omitempty"`
	EVerifyExpiry     *string `json:"everify_expiry,omitempty" validate:"omitempty,datetime=2006-01-02"`
	WorkAuthExpiry    *string `json:"work_auth_expiry,omitempty" validate:"omitempty,datetime=2006-01-02"`
	I9CompletedAt     *string `json:"i9_completed_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CertificationRequest records a certification on a worker.
type CertificationRequest struct {
	CompanyCode       string `json:"-" validate:"required"`
	PersonnelID       int    `json:"-" validate:"required"`
	Name              string `json:"name" validate:"required,max=200"`
	Issuer            string `json:"issuer"`
	CertificateNumber string `json:"certificate_number"`
	IssuedDate        string `json:"issued_date" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate        string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

// ClockInRequest opens a time entry from a device position.
type ClockInRequest struct {
	CompanyCode string   `json:"-" validate:"required"`
	PersonnelID int      `json:"personnel_id" validate:"required,gt=0"`
	ProjectID   int      `json:"project_id" validate:"required,gt=0"`
	Lat         *float64 `json:"lat" validate:"required"`
	Lng         *float64 `json:"lng" validate:"required"`
	Notes       string   `json:"notes"`
}

// ClockOutRequest closes a worker's open time entry.
type ClockOutRequest struct {
	CompanyCode string   `json:"-" validate:"required"`
	PersonnelID int      `json:"personnel_id" validate:"required,gt=0"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

// TimeEntryListRequest filters time entries. From and To are inclusive dates.
type TimeEntryListRequest struct {
	CompanyCode string
	PersonnelID int
	ProjectID   int
	From        string
	To          string
}

// TranslateRequest asks for text to be translated.
type TranslateRequest struct {
	Text           string `json:"text" validate:"required,max=10000"`
	TargetLanguage string `json:"target_language" validate:"required,max=40"`
}
