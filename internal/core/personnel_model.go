package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Personnel is a field worker. Records are soft-deleted so that historical
// time entries keep resolving.
type Personnel struct {
	ID                int              `json:"id"`
	CompanyID         int              `json:"company_id"`
	FirstName         string           `json:"first_name"`
	LastName          string           `json:"last_name"`
	Email             *string          `json:"email,omitempty"`
	Phone             *string          `json:"phone,omitempty"`
	JobTitle          *string          `json:"job_title,omitempty"`
	HireDate          *time.Time       `json:"hire_date,omitempty"`
	HourlyRate        *decimal.Decimal `json:"hourly_rate,omitempty"`
	EVerifyStatus     *string          `json:"everify_status,omitempty"`
	EVerifyCaseNumber *string          `json:"everify_case_number,omitempty"`
	EVerifyExpiry     *time.Time       `json:"everify_expiry,omitempty"`
	WorkAuthExpiry    *time.Time       `json:"work_auth_expiry,omitempty"`
	I9CompletedAt     *time.Time       `json:"i9_completed_at,omitempty"`
	DeletedAt         *time.Time       `json:"deleted_at,omitempty"`
	Certifications    []Certification  `json:"certifications,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// FullName returns "First Last".
func (p Personnel) FullName() string {
	return p.FirstName + " " + p.LastName
}

// ComplianceFacts extracts the fields EvaluateCompliance reads.
func (p Personnel) ComplianceFacts() ComplianceFacts {
	f := ComplianceFacts{
		EVerifyExpiry:  p.EVerifyExpiry,
		WorkAuthExpiry: p.WorkAuthExpiry,
		I9CompletedAt:  p.I9CompletedAt,
		Certifications: p.Certifications,
	}
	if p.EVerifyStatus != nil {
		f.EVerifyStatus = *p.EVerifyStatus
	}
	return f
}

// Certification is a license or training record held by a worker.
type Certification struct {
	ID                int        `json:"id"`
	PersonnelID       int        `json:"personnel_id"`
	Name              string     `json:"name"`
	Issuer            *string    `json:"issuer,omitempty"`
	CertificateNumber *string    `json:"certificate_number,omitempty"`
	IssuedDate        *time.Time `json:"issued_date,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// PersonnelInput holds the fields required to create a personnel record.
type PersonnelInput struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	JobTitle   string
	HireDate   *time.Time
	HourlyRate *decimal.Decimal
}

// ComplianceUpdate changes a worker's compliance fields. Nil fields are left
// as they are.
type ComplianceUpdate struct {
	EVerifyStatus     *string
	EVerifyCaseNumber *string
	EVerifyExpiry     *time.Time
	WorkAuthExpiry    *time.Time
	I9CompletedAt     *time.Time
}

// CertificationInput holds the fields for recording a certification.
type CertificationInput struct {
	Name              string
	Issuer            string
	CertificateNumber string
	IssuedDate        *time.Time
	ExpiryDate        *time.Time
}

// PersonnelCompliance pairs a worker with their evaluated compliance.
type PersonnelCompliance struct {
	Personnel *Personnel       `json:"personnel"`
	Result    ComplianceResult `json:"compliance"`
}

// PersonnelService provides personnel and compliance operations.
type PersonnelService interface {
	CreatePersonnel(ctx context.Context, companyID int, input PersonnelInput) (*Personnel, error)

	// GetPersonnel returns a worker with certifications, trashed or not.
	GetPersonnel(ctx context.Context, companyID, personnelID int) (*Personnel, error)

	// GetPersonnelList returns workers ordered by name. Trashed workers are
	// included only when includeDeleted is set.
	GetPersonnelList(ctx context.Context, companyID int, includeDeleted bool) ([]Personnel, error)

	UpdateCompliance(ctx context.Context, companyID, personnelID int, update ComplianceUpdate) (*Personnel, error)
	AddCertification(ctx context.Context, companyID, personnelID int, input CertificationInput) (*Certification, error)

	// TrashPersonnel soft-deletes a worker. RestorePersonnel undoes it.
	TrashPersonnel(ctx context.Context, companyID, personnelID int) error
	RestorePersonnel(ctx context.Context, companyID, personnelID int) (*Personnel, error)

	// EvaluateCompliance evaluates one worker as of now.
	EvaluateCompliance(ctx context.Context, companyID, personnelID int, now time.Time) (*PersonnelCompliance, error)

	// ListNonCompliant evaluates every live worker and returns those with at
	// least one issue, critical first.
	ListNonCompliant(ctx context.Context, companyID int, now time.Time) ([]PersonnelCompliance, error)
}
