package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"commandx/internal/ai"
	"commandx/internal/core"
	"commandx/internal/logger"
)

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrTranslationUnavailable = errors.New("translation is not configured")
)

// Services bundles the core services the application layer drives.
type Services struct {
	Companies      core.CompanyService
	Users          core.UserService
	Customers      core.CustomerService
	Vendors        core.VendorService
	Projects       core.ProjectService
	Estimates      core.EstimateService
	JobOrders      core.JobOrderService
	Invoices       core.InvoiceService
	PurchaseOrders core.PurchaseOrderService
	VendorBills    core.VendorBillService
	ChangeOrders   core.ChangeOrderService
	Personnel      core.PersonnelService
	TimeEntries    core.TimeEntryService
}

// NewServices wires every core service against pool. cache may be nil.
func NewServices(pool *pgxpool.Pool, cache core.SettingsCache, numbers *core.NumberGenerator) Services {
	companies := core.NewCompanyService(pool, cache)
	return Services{
		Companies:      companies,
		Users:          core.NewUserService(pool),
		Customers:      core.NewCustomerService(pool),
		Vendors:        core.NewVendorService(pool),
		Projects:       core.NewProjectService(pool),
		Estimates:      core.NewEstimateService(pool, companies, numbers),
		JobOrders:      core.NewJobOrderService(pool),
		Invoices:       core.NewInvoiceService(pool, companies, numbers),
		PurchaseOrders: core.NewPurchaseOrderService(pool, companies, numbers),
		VendorBills:    core.NewVendorBillService(pool, companies, numbers),
		ChangeOrders:   core.NewChangeOrderService(pool, companies, numbers),
		Personnel:      core.NewPersonnelService(pool),
		TimeEntries:    core.NewTimeEntryService(pool, companies),
	}
}

// Options carries the application settings taken from config.
type Options struct {
	DefaultCompanyCode string
	PhoneRegion        string
}

type appService struct {
	pool       *pgxpool.Pool
	svc        Services
	numbers    *core.NumberGenerator
	translator *ai.Translator
	validate   *validator.Validate
	opts       Options
	log        zerolog.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// translator may be nil, which disables Translate.
func NewAppService(pool *pgxpool.Pool, svc Services, numbers *core.NumberGenerator, translator *ai.Translator, opts Options) ApplicationService {
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = "US"
	}
	return &appService{
		pool:       pool,
		svc:        svc,
		numbers:    numbers,
		translator: translator,
		validate:   newValidator(opts.PhoneRegion),
		opts:       opts,
		log:        logger.WithComponent("app"),
	}
}

func (s *appService) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return processValidationErrors(err)
	}
	return nil
}

func (s *appService) company(ctx context.Context, companyCode string) (*core.Company, error) {
	if strings.TrimSpace(companyCode) == "" {
		return nil, invalidField("company_code", "required")
	}
	return s.svc.Companies.GetByCode(ctx, companyCode)
}

func (s *appService) normalizePhone(field, phone string) (string, error) {
	if phone == "" {
		return "", nil
	}
	e164, err := NormalizePhone(phone, s.opts.PhoneRegion)
	if err != nil {
		return "", invalidField(field, "phone")
	}
	return e164, nil
}

// LoadDefaultCompany loads the configured default company. Without one it
// expects exactly one company in the database.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if s.opts.DefaultCompanyCode != "" {
		return s.svc.Companies.GetByCode(ctx, s.opts.DefaultCompanyCode)
	}
	companies, err := s.svc.Companies.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(companies) {
	case 0:
		return nil, fmt.Errorf("no company found, have migrations run?: %w", core.ErrNotFound)
	case 1:
		return &companies[0], nil
	default:
		return nil, fmt.Errorf("multiple companies found; set COMPANY_CODE")
	}
}

func (s *appService) ListCompanies(ctx context.Context) ([]core.Company, error) {
	return s.svc.Companies.List(ctx)
}

// AuthenticateUser verifies credentials. Unknown users and wrong passwords
// both return ErrInvalidCredentials.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.svc.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Str("username", u.Username).Msg("failed login")
		return nil, ErrInvalidCredentials
	}
	return &UserSession{
		UserID:      u.ID,
		Username:    u.Username,
		CompanyID:   u.CompanyID,
		CompanyCode: u.CompanyCode,
		Role:        u.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.svc.Users.GetByID(ctx, userID)
}

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.svc.Users.CreateUser(ctx, core.NewUser{
		CompanyID:    company.ID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	})
}

func (s *appService) GetSettings(ctx context.Context, companyCode string) (*SettingsResult, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	cs, err := s.svc.Companies.GetSettings(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	return &SettingsResult{Settings: cs, MinAllowedDate: cs.Gate().MinAllowedDate()}, nil
}

func (s *appService) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*SettingsResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	lockedDate, err := parseOptDatePtr("locked_period_date", req.LockedPeriodDate)
	if err != nil {
		return nil, err
	}
	cs, err := s.svc.Companies.UpdateSettings(ctx, company.ID, core.CompanySettingsInput{
		LockedPeriodDate:    lockedDate,
		ClearLockedPeriod:   req.ClearLockedPeriod,
		LockedPeriodEnabled: req.LockedPeriodEnabled,
		DefaultTaxRate:      req.DefaultTaxRate,
		DefaultMarkupPct:    req.DefaultMarkupPct,
		GeofenceRadiusMiles: req.GeofenceRadiusMiles,
		Timezone:            req.Timezone,
	})
	if err != nil {
		return nil, err
	}
	if cs.LockedPeriodEnabled && cs.LockedPeriodDate != nil {
		s.log.Info().Str("company", company.CompanyCode).
			Str("locked_through", cs.LockedPeriodDate.Format("2006-01-02")).
			Msg("locked period updated")
	}
	return &SettingsResult{Settings: cs, MinAllowedDate: cs.Gate().MinAllowedDate()}, nil
}

func (s *appService) CheckLockedPeriod(ctx context.Context, companyCode, date, entity string) (core.ValidationResult, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return core.ValidationResult{}, err
	}
	cs, err := s.svc.Companies.GetSettings(ctx, company.ID)
	if err != nil {
		return core.ValidationResult{}, err
	}
	return cs.Gate().CheckString(date, entity), nil
}

func (s *appService) ListCustomers(ctx context.Context, companyCode string) ([]core.Customer, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Customers.GetCustomers(ctx, company.ID)
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	phone, err := s.normalizePhone("phone", req.Phone)
	if err != nil {
		return nil, err
	}
	return s.svc.Customers.CreateCustomer(ctx, company.ID, core.CustomerInput{
		Code:    req.Code,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   phone,
		Address: req.Address,
	})
}

func (s *appService) ListVendors(ctx context.Context, companyCode string) ([]core.Vendor, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Vendors.GetVendors(ctx, company.ID)
}

func (s *appService) GetVendor(ctx context.Context, companyCode, vendorCode string) (*core.Vendor, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Vendors.GetVendorByCode(ctx, company.ID, vendorCode)
}

func (s *appService) CreateVendor(ctx context.Context, req CreateVendorRequest) (*core.Vendor, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	phone, err := s.normalizePhone("phone", req.Phone)
	if err != nil {
		return nil, err
	}
	terms := req.PaymentTermsDays
	if terms == 0 {
		terms = 30
	}
	return s.svc.Vendors.CreateVendor(ctx, company.ID, core.VendorInput{
		Code:             req.Code,
		Name:             req.Name,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            phone,
		Address:          req.Address,
		Trade:            req.Trade,
		PaymentTermsDays: terms,
	})
}

func (s *appService) TrashVendor(ctx context.Context, companyCode, vendorCode string) error {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return err
	}
	return s.svc.Vendors.TrashVendor(ctx, company.ID, vendorCode)
}

func (s *appService) ListProjects(ctx context.Context, companyCode string) ([]core.Project, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Projects.GetProjects(ctx, company.ID)
}

func (s *appService) GetProject(ctx context.Context, companyCode string, projectID int) (*core.Project, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Projects.GetProject(ctx, company.ID, projectID)
}

func (s *appService) CreateProject(ctx context.Context, req CreateProjectRequest) (*core.Project, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	input := core.ProjectInput{
		Code:                req.Code,
		Name:                req.Name,
		Address:             req.Address,
		SiteLat:             req.SiteLat,
		SiteLng:             req.SiteLng,
		GeofenceRadiusMiles: req.GeofenceRadiusMiles,
		ContractValue:       req.ContractValue,
	}
	if req.CustomerCode != "" {
		customer, err := s.svc.Customers.GetCustomerByCode(ctx, company.ID, req.CustomerCode)
		if err != nil {
			return nil, err
		}
		input.CustomerID = &customer.ID
	}
	return s.svc.Projects.CreateProject(ctx, company.ID, input)
}

func (s *appService) GetProjectFinancials(ctx context.Context, companyCode string, projectID int) (*core.ProjectFinancials, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.ChangeOrders.ProjectSummary(ctx, company.ID, projectID)
}

// PreviewNextNumber reads the next free number outside any transaction, so
// a concurrent create may take it first.
func (s *appService) PreviewNextNumber(ctx context.Context, companyCode, prefix string) (*NumberPreview, error) {
	seq, ok := core.SequenceByPrefix(prefix)
	if !ok {
		return nil, invalidField("prefix", "oneof=EST JO INV PO CO VB")
	}
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	next, err := s.numbers.Next(ctx, s.pool, company.ID, seq)
	if err != nil {
		return nil, err
	}
	return &NumberPreview{Prefix: seq.Prefix, Next: next}, nil
}

func (s *appService) Translate(ctx context.Context, req TranslateRequest) (*ai.Translation, error) {
	if s.translator == nil {
		return nil, ErrTranslationUnavailable
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.translator.Translate(ctx, req.Text, req.TargetLanguage)
}
