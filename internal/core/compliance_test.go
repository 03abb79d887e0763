package core_test

import (
	"strings"
	"testing"
	"time"

	"commandx/internal/core"
)

var complianceNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func datePtr(t *testing.T, s string) *time.Time {
	d := mustDate(t, s)
	return &d
}

func TestEvaluateCompliance(t *testing.T) {
	clean := func(t *testing.T) core.ComplianceFacts {
		return core.ComplianceFacts{
			EVerifyStatus:  "verified",
			EVerifyExpiry:  datePtr(t, "2026-06-01"),
			WorkAuthExpiry: datePtr(t, "2027-01-01"),
			I9CompletedAt:  datePtr(t, "2024-01-10"),
			Certifications: []core.Certification{
				{Name: "OSHA 30", ExpiryDate: datePtr(t, "2026-01-01")},
				{Name: "First Aid"},
			},
		}
	}

	t.Run("Compliant", func(t *testing.T) {
		res := core.EvaluateCompliance(clean(t), complianceNow)
		if res.IsOutOfCompliance || res.Severity != core.SeverityOK || len(res.Issues) != 0 {
			t.Errorf("expected compliant result, got %+v", res)
		}
	})

	t.Run("RejectedEVerifyIsCritical", func(t *testing.T) {
		f := clean(t)
		f.EVerifyStatus = core.EVerifyRejected
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityCritical || !res.IsOutOfCompliance {
			t.Errorf("expected critical, got %+v", res)
		}
	})

	t.Run("WorkAuthExpiringIsWarning", func(t *testing.T) {
		f := clean(t)
		f.WorkAuthExpiry = datePtr(t, "2025-06-25")
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityWarning {
			t.Errorf("expected warning, got %s", res.Severity)
		}
		if len(res.Issues) != 1 || !strings.Contains(res.Issues[0], "expires in 10 days") {
			t.Errorf("unexpected issues %v", res.Issues)
		}
	})

	t.Run("EVerifyExpiringIsWarning", func(t *testing.T) {
		f := clean(t)
		f.EVerifyExpiry = datePtr(t, "2025-06-25")
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityWarning || !res.IsOutOfCompliance {
			t.Errorf("expected warning, got %+v", res)
		}
		if len(res.Issues) != 1 || res.Issues[0] != "E-Verify expires in 10 days" {
			t.Errorf("unexpected issues %v", res.Issues)
		}
	})

	t.Run("EVerifyExpiredIsCritical", func(t *testing.T) {
		f := clean(t)
		f.EVerifyExpiry = datePtr(t, "2025-06-01")
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityCritical {
			t.Errorf("expected critical, got %s", res.Severity)
		}
		if len(res.Issues) != 1 || res.Issues[0] != "E-Verify expired on 2025-06-01" {
			t.Errorf("unexpected issues %v", res.Issues)
		}
	})

	t.Run("RejectedWithPastExpiryReportsOnce", func(t *testing.T) {
		f := clean(t)
		f.EVerifyStatus = core.EVerifyRejected
		f.EVerifyExpiry = datePtr(t, "2025-06-01")
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityCritical {
			t.Errorf("expected critical, got %s", res.Severity)
		}
		if len(res.Issues) != 1 || res.Issues[0] != "E-Verify status is rejected" {
			t.Errorf("expected only the status issue, got %v", res.Issues)
		}
	})

	t.Run("WindowBoundary", func(t *testing.T) {
		f := clean(t)
		f.WorkAuthExpiry = datePtr(t, "2025-07-15")
		if res := core.EvaluateCompliance(f, complianceNow); res.Severity != core.SeverityWarning {
			t.Errorf("expiry on day 30 should warn, got %s", res.Severity)
		}
		f.WorkAuthExpiry = datePtr(t, "2025-07-16")
		if res := core.EvaluateCompliance(f, complianceNow); res.IsOutOfCompliance {
			t.Errorf("expiry on day 31 should pass, got %v", res.Issues)
		}
	})

	t.Run("ExpiredWorkAuthIsCritical", func(t *testing.T) {
		f := clean(t)
		f.WorkAuthExpiry = datePtr(t, "2025-06-14")
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityCritical {
			t.Errorf("expected critical, got %s", res.Severity)
		}
		if !strings.Contains(res.Issues[0], "expired on 2025-06-14") {
			t.Errorf("unexpected issue %q", res.Issues[0])
		}
	})

	t.Run("MissingI9IsWarning", func(t *testing.T) {
		f := clean(t)
		f.I9CompletedAt = nil
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityWarning || len(res.Issues) != 1 {
			t.Errorf("expected one warning, got %+v", res)
		}
	})

	t.Run("CertificationsAreCountedAndCriticalWins", func(t *testing.T) {
		f := clean(t)
		f.I9CompletedAt = nil
		f.Certifications = []core.Certification{
			{Name: "Forklift", ExpiryDate: datePtr(t, "2025-05-01")},
			{Name: "Scaffold", ExpiryDate: datePtr(t, "2025-06-01")},
			{Name: "CPR", ExpiryDate: datePtr(t, "2025-07-01")},
		}
		res := core.EvaluateCompliance(f, complianceNow)
		if res.Severity != core.SeverityCritical {
			t.Errorf("expected critical, got %s", res.Severity)
		}
		joined := strings.Join(res.Issues, "; ")
		if !strings.Contains(joined, "2 certifications expired") {
			t.Errorf("expected expired count in %q", joined)
		}
		if !strings.Contains(joined, "1 certification expiring within 30 days") {
			t.Errorf("expected expiring count in %q", joined)
		}
		if len(res.Issues) != 3 {
			t.Errorf("expected 3 issues, got %d: %v", len(res.Issues), res.Issues)
		}
	})
}

func TestPersonnel_ComplianceFacts(t *testing.T) {
	status := "expired"
	p := core.Personnel{FirstName: "Ana", LastName: "Diaz", EVerifyStatus: &status}
	if p.FullName() != "Ana Diaz" {
		t.Errorf("unexpected full name %q", p.FullName())
	}
	res := core.EvaluateCompliance(p.ComplianceFacts(), complianceNow)
	if res.Severity != core.SeverityCritical {
		t.Errorf("expected critical for expired E-Verify, got %s", res.Severity)
	}
}
