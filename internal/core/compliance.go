package core

import (
	"fmt"
	"time"
)

// ComplianceWindowDays is how far ahead an expiry is reported as a warning.
const ComplianceWindowDays = 30

// Severity grades a compliance result. Higher values dominate.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// E-Verify case states that make a record non-compliant outright.
const (
	EVerifyRejected = "rejected"
	EVerifyExpired  = "expired"
)

// ComplianceFacts are the inputs the evaluator reads from a personnel record.
type ComplianceFacts struct {
	EVerifyStatus  string
	EVerifyExpiry  *time.Time
	WorkAuthExpiry *time.Time
	I9CompletedAt  *time.Time
	Certifications []Certification
}

// ComplianceResult classifies a personnel record.
type ComplianceResult struct {
	IsOutOfCompliance bool     `json:"is_out_of_compliance"`
	Issues            []string `json:"issues"`
	Severity          Severity `json:"severity"`
}

type complianceCollector struct {
	issues   []string
	severity Severity
}

func (c *complianceCollector) add(sev Severity, format string, args ...any) {
	c.issues = append(c.issues, fmt.Sprintf(format, args...))
	if sev.rank() > c.severity.rank() {
		c.severity = sev
	}
}

// EvaluateCompliance checks a personnel record against the E-Verify, work
// authorization, I-9, and certification rules as of now. Every rule that
// fires adds one issue; the severity is the highest one seen.
func EvaluateCompliance(f ComplianceFacts, now time.Time) ComplianceResult {
	today := dateOnly(now)
	windowEnd := today.AddDate(0, 0, ComplianceWindowDays)
	c := &complianceCollector{severity: SeverityOK}

	switch f.EVerifyStatus {
	case EVerifyRejected, EVerifyExpired:
		c.add(SeverityCritical, "E-Verify status is %s", f.EVerifyStatus)
	default:
		checkExpiry(c, "E-Verify", f.EVerifyExpiry, today, windowEnd)
	}

	checkExpiry(c, "Work authorization", f.WorkAuthExpiry, today, windowEnd)

	if f.I9CompletedAt == nil {
		c.add(SeverityWarning, "I-9 has not been completed")
	}

	var expired, expiring int
	for _, cert := range f.Certifications {
		if cert.ExpiryDate == nil {
			continue
		}
		exp := dateOnly(*cert.ExpiryDate)
		switch {
		case exp.Before(today):
			expired++
		case !exp.After(windowEnd):
			expiring++
		}
	}
	if expired > 0 {
		c.add(SeverityCritical, "%d %s expired", expired, plural(expired, "certification", "certifications"))
	}
	if expiring > 0 {
		c.add(SeverityWarning, "%d %s expiring within %d days", expiring,
			plural(expiring, "certification", "certifications"), ComplianceWindowDays)
	}

	return ComplianceResult{
		IsOutOfCompliance: len(c.issues) > 0,
		Issues:            c.issues,
		Severity:          c.severity,
	}
}

func checkExpiry(c *complianceCollector, what string, expiry *time.Time, today, windowEnd time.Time) {
	if expiry == nil {
		return
	}
	exp := dateOnly(*expiry)
	switch {
	case exp.Before(today):
		c.add(SeverityCritical, "%s expired on %s", what, exp.Format(dateLayout))
	case !exp.After(windowEnd):
		days := int(exp.Sub(today).Hours() / 24)
		c.add(SeverityWarning, "%s expires in %d %s", what, days, plural(days, "day", "days"))
	}
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return singular
	}
	return many
}
