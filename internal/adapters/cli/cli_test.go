package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"commandx/internal/app"
	"commandx/internal/config"
	"commandx/internal/core"
)

type fakeService struct {
	app.ApplicationService

	scanCode string
	scanAsOf time.Time
	bulk     app.BulkStatusRequest
	user     app.CreateUserRequest
}

func (f *fakeService) LoadDefaultCompany(context.Context) (*core.Company, error) {
	return &core.Company{ID: 1, CompanyCode: "ACME", Name: "Acme Builders"}, nil
}

func (f *fakeService) ScanCompliance(_ context.Context, code string, asOf time.Time) (*app.ComplianceScanResult, error) {
	f.scanCode, f.scanAsOf = code, asOf
	status := core.EVerifyRejected
	return &app.ComplianceScanResult{
		CompanyCode: code,
		AsOf:        asOf,
		Personnel: []core.PersonnelCompliance{{
			Personnel: &core.Personnel{ID: 3, FirstName: "Ana", LastName: "Diaz", EVerifyStatus: &status},
			Result:    core.ComplianceResult{IsOutOfCompliance: true, Issues: []string{"E-Verify status is rejected"}, Severity: core.SeverityCritical},
		}},
	}, nil
}

func (f *fakeService) BulkUpdateEstimateStatus(_ context.Context, req app.BulkStatusRequest) (*core.BulkResult, error) {
	f.bulk = req
	res := &core.BulkResult{Target: core.Status(req.Status)}
	for _, id := range req.IDs {
		ok := id != 13
		item := core.BulkItemResult{ID: id, Success: ok}
		if !ok {
			item.Error = "estimate cannot move from closed to sent"
			res.Failed++
		} else {
			res.Succeeded++
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (f *fakeService) PreviewNextNumber(_ context.Context, code, prefix string) (*app.NumberPreview, error) {
	return &app.NumberPreview{Prefix: strings.ToUpper(prefix), Next: strings.ToUpper(prefix) + "-00012"}, nil
}

func (f *fakeService) CreateUser(_ context.Context, req app.CreateUserRequest) (*core.User, error) {
	f.user = req
	return &core.User{ID: 5, Username: req.Username, Role: req.Role}, nil
}

func run(t *testing.T, svc *fakeService, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	closed := false
	open := func(context.Context, *config.Config) (app.ApplicationService, func(), error) {
		return svc, func() { closed = true }, nil
	}
	root := NewRootCommand(cfg, open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil && !closed && len(args) > 0 && args[0] != "migrate" {
		t.Error("expected the service to be released")
	}
	return out.String(), err
}

func TestComplianceScan(t *testing.T) {
	svc := &fakeService{}
	out, err := run(t, svc, &config.Config{}, "compliance", "scan", "--as-of", "2025-06-15")
	if err != nil {
		t.Fatalf("compliance scan: %v", err)
	}
	if svc.scanCode != "ACME" {
		t.Errorf("expected default company ACME, got %q", svc.scanCode)
	}
	if svc.scanAsOf.Format("2006-01-02") != "2025-06-15" {
		t.Errorf("unexpected as-of %v", svc.scanAsOf)
	}
	for _, want := range []string{"CRITICAL", "Ana Diaz (#3)", "E-Verify status is rejected", "1 worker(s) out of compliance"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := run(t, svc, &config.Config{}, "compliance", "scan", "--as-of", "15/06/2025"); err == nil {
		t.Error("expected error for a bad --as-of date")
	}
}

func TestEstimatesBulkStatus(t *testing.T) {
	svc := &fakeService{}
	cfg := &config.Config{DefaultCompanyCode: "BUILD"}

	out, err := run(t, svc, cfg, "estimates", "bulk-status", "--status", "sent", "12", "14")
	if err != nil {
		t.Fatalf("bulk-status: %v", err)
	}
	if svc.bulk.CompanyCode != "BUILD" || svc.bulk.Status != "sent" || len(svc.bulk.IDs) != 2 {
		t.Errorf("unexpected request %+v", svc.bulk)
	}
	if !strings.Contains(out, "2 succeeded, 0 failed") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, svc, cfg, "estimates", "bulk-status", "--status", "sent", "--company", "ACME", "12", "13")
	if err == nil {
		t.Error("expected an error when an item fails")
	}
	if svc.bulk.CompanyCode != "ACME" {
		t.Errorf("--company should win, got %q", svc.bulk.CompanyCode)
	}
	if !strings.Contains(out, "fail  #13") {
		t.Errorf("expected the failed item in output:\n%s", out)
	}

	if _, err := run(t, svc, cfg, "estimates", "bulk-status", "--status", "sent", "x"); err == nil {
		t.Error("expected error for a non-numeric id")
	}
}

func TestNumbersNextJSON(t *testing.T) {
	out, err := run(t, &fakeService{}, &config.Config{}, "numbers", "next", "inv", "--json")
	if err != nil {
		t.Fatalf("numbers next: %v", err)
	}
	if !strings.Contains(out, `"next": "INV-00012"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestUsersCreate(t *testing.T) {
	svc := &fakeService{}
	out, err := run(t, svc, &config.Config{}, "users", "create", "--username", "bob", "--password", "long-enough")
	if err != nil {
		t.Fatalf("users create: %v", err)
	}
	if svc.user.CompanyCode != "ACME" || svc.user.Role != core.RoleMember {
		t.Errorf("unexpected request %+v", svc.user)
	}
	if !strings.Contains(out, "created user bob") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, svc, &config.Config{}, "users", "create", "--username", "bob"); err == nil {
		t.Error("expected error without --password")
	}
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("no database")
	open := func(context.Context, *config.Config) (app.ApplicationService, func(), error) {
		return nil, nil, boom
	}
	root := NewRootCommand(&config.Config{}, open)
	root.SetArgs([]string{"numbers", "next", "EST"})
	root.SetOut(&bytes.Buffer{})
	if err := root.ExecuteContext(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected open error, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "22"})
	if err != nil || len(ids) != 2 || ids[1] != 22 {
		t.Errorf("parseIDs = %v, %v", ids, err)
	}
	if _, err := parseIDs([]string{"0"}); err == nil {
		t.Error("expected error for zero id")
	}
}
