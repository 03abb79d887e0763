package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"commandx/internal/core"
	"commandx/internal/db"
)

const testCompany = "ACME"

func setupTestDB(t *testing.T) (*pgxpool.Pool, ApplicationService) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Point TEST_DATABASE_URL at a throwaway database: every table is truncated.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	if _, err := db.RunMigrations(dbURL); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL, db.PoolConfig{MaxConns: 4})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE time_entries, personnel_certifications, personnel,
			change_order_line_items, change_orders, vendor_bills, po_back_charges,
			purchase_order_line_items, purchase_orders, invoice_line_items, invoices,
			job_orders, estimate_line_items, estimates, projects, vendors, customers,
			users, company_settings, companies RESTART IDENTITY CASCADE;

		INSERT INTO companies (company_code, name) VALUES ('ACME', 'Acme Builders');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	numbers := core.NewNumberGenerator(nil)
	svc := NewAppService(pool, NewServices(pool, nil, numbers), numbers, nil, Options{})
	return pool, svc
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(desc, qty, price string) LineInput {
	return LineInput{Description: desc, Quantity: money(qty), UnitPrice: money(price)}
}

func seedCustomerAndProject(t *testing.T, svc ApplicationService) *core.Project {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.CreateCustomer(ctx, CreateCustomerRequest{
		CompanyCode: testCompany, Code: "C001", Name: "Harbor Homes", Phone: "(201) 555-0123",
	}); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	lat, lng := 40.7128, -74.0060
	project, err := svc.CreateProject(ctx, CreateProjectRequest{
		CompanyCode:   testCompany,
		Code:          "P-100",
		Name:          "Harbor Street Remodel",
		CustomerCode:  "C001",
		SiteLat:       &lat,
		SiteLng:       &lng,
		ContractValue: money("10000"),
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return project
}

func TestEstimateApprovalOpensJobOrder(t *testing.T) {
	_, svc := setupTestDB(t)
	ctx := context.Background()
	project := seedCustomerAndProject(t, svc)

	rate := money("0.08")
	est, err := svc.CreateEstimate(ctx, EstimateRequest{
		CompanyCode:  testCompany,
		CustomerCode: "C001",
		ProjectID:    &project.ID,
		EstimateDate: "2025-03-01",
		TaxRate:      &rate,
		Lines: []LineInput{
			line("Demolition", "1", "1500"),
			line("Framing", "10", "250"),
		},
	})
	if err != nil {
		t.Fatalf("CreateEstimate: %v", err)
	}
	if est.Number != "EST-00001" {
		t.Errorf("expected EST-00001, got %s", est.Number)
	}
	if !est.Total.Equal(money("4320")) {
		t.Errorf("expected total 4320, got %s", est.Total)
	}
	if est.Status != core.EstimateDraft {
		t.Errorf("expected draft, got %s", est.Status)
	}

	change, err := svc.UpdateEstimateStatus(ctx, testCompany, est.ID, "approved")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if change.JobOrder == nil {
		t.Fatal("expected a job order on approval")
	}
	if change.JobOrder.Number != "JO-00001" || !change.JobOrder.Total.Equal(est.Total) {
		t.Errorf("unexpected job order %s total %s", change.JobOrder.Number, change.JobOrder.Total)
	}

	if _, err := svc.UpdateEstimateStatus(ctx, testCompany, est.ID, "draft"); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("approved -> draft should be rejected, got %v", err)
	}

	jobs, err := svc.ListJobOrders(ctx, testCompany, "")
	if err != nil {
		t.Fatalf("ListJobOrders: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("expected one job order, got %d", len(jobs))
	}
}

func TestPurchaseOrderBillingLifecycle(t *testing.T) {
	_, svc := setupTestDB(t)
	ctx := context.Background()

	if _, err := svc.CreateVendor(ctx, CreateVendorRequest{
		CompanyCode: testCompany, Code: "V001", Name: "Keystone Lumber", PaymentTermsDays: 30,
	}); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	vendors, err := svc.ListVendors(ctx, testCompany)
	if err != nil || len(vendors) != 1 {
		t.Fatalf("ListVendors = %d, %v", len(vendors), err)
	}

	po, err := svc.CreatePurchaseOrder(ctx, PurchaseOrderRequest{
		CompanyCode: testCompany,
		VendorCode:  "V001",
		PODate:      "2025-03-05",
		Lines:       []LineInput{line("Studs", "100", "50")},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if po.BillingStatus != core.BillingOpen || !po.Total.Equal(money("5000")) {
		t.Fatalf("unexpected PO %s %s", po.BillingStatus, po.Total)
	}

	bill, err := svc.CreateVendorBill(ctx, VendorBillRequest{
		CompanyCode: testCompany, POID: po.ID, BillDate: "2025-03-20", Total: money("3000"),
	})
	if err != nil {
		t.Fatalf("CreateVendorBill: %v", err)
	}
	if bill.Warning != "" {
		t.Errorf("unexpected warning %q", bill.Warning)
	}
	if _, err := svc.AddBackCharge(ctx, BackChargeRequest{
		CompanyCode: testCompany, POID: po.ID, Amount: money("200"), Reason: "Site cleanup", ChargeDate: "2025-03-21",
	}); err != nil {
		t.Fatalf("AddBackCharge: %v", err)
	}

	closed, err := svc.ClosePurchaseOrder(ctx, testCompany, po.ID)
	if err != nil {
		t.Fatalf("ClosePurchaseOrder: %v", err)
	}
	if closed.PurchaseOrder.BillingStatus != core.BillingClosed {
		t.Errorf("expected closed billing, got %s", closed.PurchaseOrder.BillingStatus)
	}
	if !strings.Contains(closed.Warning, "2000.00") {
		t.Errorf("expected unbilled balance warning, got %q", closed.Warning)
	}
	billing := closed.PurchaseOrder.Billing
	if !billing.Billed.Equal(money("3000")) || !billing.NetPayable.Equal(money("2800")) {
		t.Errorf("unexpected billing summary %+v", billing)
	}

	_, err = svc.CreateVendorBill(ctx, VendorBillRequest{
		CompanyCode: testCompany, POID: po.ID, BillDate: "2025-03-25", Total: money("100"),
	})
	if !errors.Is(err, core.ErrPurchaseOrderClosed) {
		t.Errorf("expected ErrPurchaseOrderClosed, got %v", err)
	}

	reopened, err := svc.ReopenPurchaseOrder(ctx, testCompany, po.ID)
	if err != nil {
		t.Fatalf("ReopenPurchaseOrder: %v", err)
	}
	if reopened.BillingStatus != core.BillingOpen || reopened.Status != core.POInProgress {
		t.Errorf("unexpected reopened PO %s/%s", reopened.Status, reopened.BillingStatus)
	}

	over, err := svc.CreateVendorBill(ctx, VendorBillRequest{
		CompanyCode: testCompany, POID: po.ID, BillDate: "2025-03-26", Total: money("2500"),
	})
	if err != nil {
		t.Fatalf("over-billing should warn, not fail: %v", err)
	}
	if over.Warning == "" {
		t.Error("expected an over-billing warning")
	}
}

func TestChangeOrdersReviseContract(t *testing.T) {
	_, svc := setupTestDB(t)
	ctx := context.Background()
	project := seedCustomerAndProject(t, svc)

	add, err := svc.CreateChangeOrder(ctx, ChangeOrderRequest{
		CompanyCode: testCompany, ProjectID: project.ID, ChangeType: "additive",
		ChangeDate: "2025-04-01", Description: "Add deck", Lines: []LineInput{line("Deck", "1", "500")},
	})
	if err != nil {
		t.Fatalf("additive change order: %v", err)
	}
	ded, err := svc.CreateChangeOrder(ctx, ChangeOrderRequest{
		CompanyCode: testCompany, ProjectID: project.ID, ChangeType: "deductive",
		ChangeDate: "2025-04-02", Description: "Drop shed", Lines: []LineInput{line("Shed", "1", "200")},
	})
	if err != nil {
		t.Fatalf("deductive change order: %v", err)
	}
	if _, err := svc.CreateChangeOrder(ctx, ChangeOrderRequest{
		CompanyCode: testCompany, ProjectID: project.ID, ChangeType: "additive",
		ChangeDate: "2025-04-03", Description: "Maybe skylight", Lines: []LineInput{line("Skylight", "1", "50")},
	}); err != nil {
		t.Fatalf("pending change order: %v", err)
	}

	for _, id := range []int{add.ID, ded.ID} {
		co, err := svc.UpdateChangeOrderStatus(ctx, testCompany, id, "approved")
		if err != nil {
			t.Fatalf("approve change order %d: %v", id, err)
		}
		if co.ApprovedAt == nil {
			t.Errorf("change order %d: expected approved_at", id)
		}
	}

	fin, err := svc.GetProjectFinancials(ctx, testCompany, project.ID)
	if err != nil {
		t.Fatalf("GetProjectFinancials: %v", err)
	}
	if !fin.ChangeOrders.ApprovedValue.Equal(money("300")) || fin.ChangeOrders.ApprovedCount != 2 {
		t.Errorf("unexpected approved rollup %+v", fin.ChangeOrders)
	}
	if !fin.ChangeOrders.PendingValue.Equal(money("50")) || fin.ChangeOrders.PendingCount != 1 {
		t.Errorf("unexpected pending rollup %+v", fin.ChangeOrders)
	}
	if !fin.RevisedContract.Equal(money("10300")) {
		t.Errorf("expected revised contract 10300, got %s", fin.RevisedContract)
	}
}

func TestClockInGeofence(t *testing.T) {
	_, svc := setupTestDB(t)
	ctx := context.Background()
	project := seedCustomerAndProject(t, svc)

	worker, err := svc.CreatePersonnel(ctx, CreatePersonnelRequest{
		CompanyCode: testCompany, FirstName: "Ana", LastName: "Diaz",
	})
	if err != nil {
		t.Fatalf("CreatePersonnel: %v", err)
	}

	farLat, lng := 40.7628, -74.0060
	_, err = svc.ClockIn(ctx, ClockInRequest{
		CompanyCode: testCompany, PersonnelID: worker.ID, ProjectID: project.ID, Lat: &farLat, Lng: &lng,
	})
	if !errors.Is(err, core.ErrOutsideGeofence) {
		t.Fatalf("expected ErrOutsideGeofence, got %v", err)
	}

	nearLat := 40.7138
	entry, err := svc.ClockIn(ctx, ClockInRequest{
		CompanyCode: testCompany, PersonnelID: worker.ID, ProjectID: project.ID, Lat: &nearLat, Lng: &lng,
	})
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if entry.ClockInDistanceMiles == nil || *entry.ClockInDistanceMiles > 0.25 {
		t.Errorf("unexpected distance %v", entry.ClockInDistanceMiles)
	}

	_, err = svc.ClockIn(ctx, ClockInRequest{
		CompanyCode: testCompany, PersonnelID: worker.ID, ProjectID: project.ID, Lat: &nearLat, Lng: &lng,
	})
	if !errors.Is(err, core.ErrAlreadyClockedIn) {
		t.Errorf("expected ErrAlreadyClockedIn, got %v", err)
	}

	out, err := svc.ClockOut(ctx, ClockOutRequest{CompanyCode: testCompany, PersonnelID: worker.ID})
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if out.ClockOutAt == nil || out.Hours == nil {
		t.Error("expected clock-out time and hours")
	}
}

func TestLockedPeriodBlocksBackdatedInvoice(t *testing.T) {
	_, svc := setupTestDB(t)
	ctx := context.Background()
	seedCustomerAndProject(t, svc)

	enabled := true
	through := "2025-01-31"
	settings, err := svc.UpdateSettings(ctx, UpdateSettingsRequest{
		CompanyCode: testCompany, LockedPeriodEnabled: &enabled, LockedPeriodDate: &through,
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if settings.MinAllowedDate == nil || settings.MinAllowedDate.Format("2006-01-02") != "2025-02-01" {
		t.Errorf("unexpected min allowed date %v", settings.MinAllowedDate)
	}

	_, err = svc.CreateInvoice(ctx, InvoiceRequest{
		CompanyCode: testCompany, CustomerCode: "C001", InvoiceDate: "2025-01-15",
		Lines: []LineInput{line("Deposit", "1", "1000")},
	})
	if !errors.Is(err, core.ErrPeriodLocked) {
		t.Errorf("expected ErrPeriodLocked, got %v", err)
	}

	inv, err := svc.CreateInvoice(ctx, InvoiceRequest{
		CompanyCode: testCompany, CustomerCode: "C001", InvoiceDate: "2025-02-01",
		Lines: []LineInput{line("Deposit", "1", "1000")},
	})
	if err != nil {
		t.Fatalf("CreateInvoice on the first open day: %v", err)
	}
	if inv.Number != "INV-00001" {
		t.Errorf("expected INV-00001, got %s", inv.Number)
	}

	preview, err := svc.PreviewNextNumber(ctx, testCompany, "inv")
	if err != nil {
		t.Fatalf("PreviewNextNumber: %v", err)
	}
	if preview.Next != "INV-00002" {
		t.Errorf("expected INV-00002, got %s", preview.Next)
	}

	res, err := svc.CheckLockedPeriod(ctx, testCompany, "2025-01-31", "invoice")
	if err != nil {
		t.Fatalf("CheckLockedPeriod: %v", err)
	}
	if res.Valid {
		t.Error("2025-01-31 should be locked")
	}
}

func TestBulkEstimateStatusPartialFailure(t *testing.T) {
	pool, svc := setupTestDB(t)
	ctx := context.Background()
	seedCustomerAndProject(t, svc)

	if _, err := pool.Exec(ctx, `INSERT INTO companies (company_code, name) VALUES ('OTHER', 'Other Builders')`); err != nil {
		t.Fatalf("seed second company: %v", err)
	}
	if _, err := svc.CreateCustomer(ctx, CreateCustomerRequest{
		CompanyCode: "OTHER", Code: "C001", Name: "Elsewhere LLC",
	}); err != nil {
		t.Fatalf("CreateCustomer in OTHER: %v", err)
	}

	newEstimate := func(company string) *core.Estimate {
		t.Helper()
		est, err := svc.CreateEstimate(ctx, EstimateRequest{
			CompanyCode: company, CustomerCode: "C001", EstimateDate: "2025-03-01",
			Lines: []LineInput{line("Drywall", "1", "800")},
		})
		if err != nil {
			t.Fatalf("CreateEstimate(%s): %v", company, err)
		}
		return est
	}

	draft := newEstimate(testCompany)
	closed := newEstimate(testCompany)
	if _, err := svc.UpdateEstimateStatus(ctx, testCompany, closed.ID, "closed"); err != nil {
		t.Fatalf("close estimate: %v", err)
	}
	foreign := newEstimate("OTHER")

	res, err := svc.BulkUpdateEstimateStatus(ctx, BulkStatusRequest{
		CompanyCode: testCompany,
		IDs:         []int{draft.ID, closed.ID, foreign.ID},
		Status:      "sent",
	})
	if err != nil {
		t.Fatalf("BulkUpdateEstimateStatus: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 2 || len(res.Items) != 3 {
		t.Fatalf("expected 1 succeeded and 2 failed, got %+v", res)
	}

	tests := []struct {
		name    string
		item    core.BulkItemResult
		id      int
		success bool
		errPart string
	}{
		{"draft estimate is sent", res.Items[0], draft.ID, true, ""},
		{"closed estimate is rejected", res.Items[1], closed.ID, false, "cannot move from closed to sent"},
		{"other company estimate is not found", res.Items[2], foreign.ID, false, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.item.ID != tt.id || tt.item.Success != tt.success {
				t.Errorf("unexpected item %+v", tt.item)
			}
			if tt.success && tt.item.Error != "" {
				t.Errorf("successful item carries error %q", tt.item.Error)
			}
			if !tt.success && !strings.Contains(tt.item.Error, tt.errPart) {
				t.Errorf("expected error containing %q, got %q", tt.errPart, tt.item.Error)
			}
		})
	}

	if got, err := svc.GetEstimate(ctx, testCompany, draft.ID); err != nil || got.Status != core.EstimateSent {
		t.Errorf("draft estimate should now be sent, got %v, %v", got, err)
	}
	if got, err := svc.GetEstimate(ctx, testCompany, closed.ID); err != nil || got.Status != core.EstimateClosed {
		t.Errorf("closed estimate should be unchanged, got %v, %v", got, err)
	}
	if got, err := svc.GetEstimate(ctx, "OTHER", foreign.ID); err != nil || got.Status != core.EstimateDraft {
		t.Errorf("other company estimate should be unchanged, got %v, %v", got, err)
	}
}

func TestJobOrderProgressFromInvoices(t *testing.T) {
	_, svc := setupTestDB(t)
	ctx := context.Background()
	project := seedCustomerAndProject(t, svc)

	zero := money("0")
	est, err := svc.CreateEstimate(ctx, EstimateRequest{
		CompanyCode: testCompany, CustomerCode: "C001", ProjectID: &project.ID,
		EstimateDate: "2025-03-01", TaxRate: &zero,
		Lines: []LineInput{line("Roofing", "1", "1000")},
	})
	if err != nil {
		t.Fatalf("CreateEstimate: %v", err)
	}
	change, err := svc.UpdateEstimateStatus(ctx, testCompany, est.ID, "approved")
	if err != nil || change.JobOrder == nil {
		t.Fatalf("approve: %v (job order %v)", err, change)
	}
	jobID := change.JobOrder.ID

	if _, err := svc.CreateInvoice(ctx, InvoiceRequest{
		CompanyCode: testCompany, JobOrderID: &jobID, InvoiceDate: "2025-03-10", TaxRate: &zero,
		Lines: []LineInput{line("Progress billing", "1", "400")},
	}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	voided, err := svc.CreateInvoice(ctx, InvoiceRequest{
		CompanyCode: testCompany, JobOrderID: &jobID, InvoiceDate: "2025-03-11", TaxRate: &zero,
		Lines: []LineInput{line("Billed in error", "1", "300")},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if _, err := svc.VoidInvoice(ctx, testCompany, voided.ID); err != nil {
		t.Fatalf("VoidInvoice: %v", err)
	}

	job, err := svc.GetJobOrder(ctx, testCompany, jobID)
	if err != nil {
		t.Fatalf("GetJobOrder: %v", err)
	}
	tests := []struct {
		label string
		got   decimal.Decimal
		want  string
	}{
		{"total", job.Progress.Total, "1000"},
		{"invoiced", job.Progress.InvoicedAmount, "400"},
		{"remaining", job.Progress.RemainingAmount, "600"},
		{"progress percent", job.Progress.ProgressPercent, "40"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if !tt.got.Equal(money(tt.want)) {
				t.Errorf("%s: expected %s, got %s", tt.label, tt.want, tt.got)
			}
		})
	}
}
