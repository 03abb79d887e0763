package core_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"commandx/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDec(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", label, want, got.String())
	}
}

func TestLineItem_EffectiveUnitPrice(t *testing.T) {
	fixed := core.LineItem{Quantity: dec("2"), UnitPrice: dec("50")}
	assertDec(t, "fixed price", fixed.EffectiveUnitPrice(), "50")

	costPlus := core.LineItem{Quantity: dec("3"), UnitPrice: dec("999"), UnitCost: decPtr("10"), MarkupPercent: decPtr("20")}
	assertDec(t, "cost plus", costPlus.EffectiveUnitPrice(), "12")
	assertDec(t, "cost plus total", costPlus.Total(), "36")

	noMarkup := core.LineItem{Quantity: dec("1"), UnitCost: decPtr("7.50")}
	assertDec(t, "cost without markup", noMarkup.EffectiveUnitPrice(), "7.50")
}

func TestComputeTotals(t *testing.T) {
	lines := []core.LineItem{
		{Quantity: dec("2"), UnitPrice: dec("50.00")},
		{Quantity: dec("3"), UnitCost: decPtr("10"), MarkupPercent: decPtr("20")},
		{Quantity: dec("0.333"), UnitPrice: dec("10")},
	}

	totals := core.ComputeTotals(lines, dec("0.08"))

	assertDec(t, "line 1", lines[0].LineTotal, "100.00")
	assertDec(t, "line 2", lines[1].LineTotal, "36.00")
	assertDec(t, "line 3 rounds to cents", lines[2].LineTotal, "3.33")
	assertDec(t, "subtotal", totals.Subtotal, "139.33")
	assertDec(t, "tax", totals.TaxAmount, "11.15")
	assertDec(t, "total", totals.Total, "150.48")
	if !totals.Total.Equal(totals.Subtotal.Add(totals.TaxAmount)) {
		t.Error("total must equal subtotal plus tax")
	}
}

func TestComputeTotals_RoundsInputsToStoredScale(t *testing.T) {
	cost := decPtr("10.00004")
	markup := decPtr("12.3456")
	lines := []core.LineItem{
		{Quantity: dec("2.00008"), UnitPrice: dec("60")},
		{Quantity: dec("1"), UnitCost: cost, MarkupPercent: markup},
	}

	totals := core.ComputeTotals(lines, dec("0.0825049"))

	tests := []struct {
		label string
		got   decimal.Decimal
		want  string
	}{
		{"quantity", lines[0].Quantity, "2.0001"},
		{"line 1 total uses rounded quantity", lines[0].LineTotal, "120.01"},
		{"unit cost", *lines[1].UnitCost, "10"},
		{"markup", *lines[1].MarkupPercent, "12.346"},
		{"line 2 total", lines[1].LineTotal, "11.23"},
		{"tax rate", totals.TaxRate, "0.0825"},
		{"subtotal", totals.Subtotal, "131.24"},
		{"tax", totals.TaxAmount, "10.83"},
		{"caller cost untouched", *cost, "10.00004"},
		{"caller markup untouched", *markup, "12.3456"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assertDec(t, tt.label, tt.got, tt.want)
		})
	}
}

func TestResolveTaxRate(t *testing.T) {
	assertDec(t, "default", core.ResolveTaxRate(dec("0.07"), nil), "0.07")
	assertDec(t, "override", core.ResolveTaxRate(dec("0.07"), decPtr("0")), "0")
	assertDec(t, "override rounded to scale", core.ResolveTaxRate(dec("0.07"), decPtr("0.0825049")), "0.0825")
	assertDec(t, "default rounded to scale", core.ResolveTaxRate(dec("0.0700051"), nil), "0.07001")
}

func TestComputeJobOrderProgress(t *testing.T) {
	p := core.ComputeJobOrderProgress(dec("1000"), []core.Billed{
		{Total: dec("250"), Status: core.InvoicePaid},
		{Total: dec("150"), Status: core.InvoiceSent},
		{Total: dec("400"), Status: core.InvoiceVoid},
	})
	assertDec(t, "invoiced", p.InvoicedAmount, "400")
	assertDec(t, "remaining", p.RemainingAmount, "600")
	assertDec(t, "progress", p.ProgressPercent, "40")

	over := core.ComputeJobOrderProgress(dec("100"), []core.Billed{{Total: dec("120"), Status: core.InvoiceSent}})
	assertDec(t, "remaining never negative", over.RemainingAmount, "0")
	assertDec(t, "progress over 100", over.ProgressPercent, "120")

	empty := core.ComputeJobOrderProgress(decimal.Zero, nil)
	assertDec(t, "zero total progress", empty.ProgressPercent, "0")
}

func TestComputePOBillingSummary(t *testing.T) {
	s := core.ComputePOBillingSummary(dec("5000"),
		[]core.Billed{
			{Total: dec("2000"), Status: core.VendorBillOpen},
			{Total: dec("1000"), Status: core.VendorBillPaid},
			{Total: dec("900"), Status: core.VendorBillVoid},
		},
		[]decimal.Decimal{dec("150"), dec("50")},
	)
	assertDec(t, "total is nominal", s.Total, "5000")
	assertDec(t, "billed", s.Billed, "3000")
	assertDec(t, "remaining", s.Remaining, "2000")
	assertDec(t, "back charges", s.BackCharges, "200")
	assertDec(t, "net payable", s.NetPayable, "2800")
	assertDec(t, "progress", s.ProgressPercent, "60")
}

func TestClosePOWarning(t *testing.T) {
	open := core.ComputePOBillingSummary(dec("1000"), []core.Billed{{Total: dec("400"), Status: core.VendorBillOpen}}, nil)
	msg := core.ClosePOWarning(open)
	if !strings.Contains(msg, "600.00") {
		t.Errorf("expected warning to name the unbilled 600.00, got %q", msg)
	}

	full := core.ComputePOBillingSummary(dec("1000"), []core.Billed{{Total: dec("1000"), Status: core.VendorBillPaid}}, nil)
	if msg := core.ClosePOWarning(full); msg != "" {
		t.Errorf("expected no warning for a fully billed PO, got %q", msg)
	}
}

func TestComputeChangeOrderRollup(t *testing.T) {
	r := core.ComputeChangeOrderRollup([]core.ChangeOrderAmount{
		{Total: dec("500"), ChangeType: core.ChangeAdditive, Status: core.ChangeOrderApproved},
		{Total: dec("200"), ChangeType: core.ChangeDeductive, Status: core.ChangeOrderSigned},
		{Total: dec("75"), ChangeType: core.ChangeAdditive, Status: core.ChangeOrderPendingApproval},
		{Total: dec("25"), ChangeType: core.ChangeDeductive, Status: core.ChangeOrderDraft},
		{Total: dec("10000"), ChangeType: core.ChangeAdditive, Status: core.ChangeOrderRejected},
	})

	assertDec(t, "approved value", r.ApprovedValue, "300")
	assertDec(t, "pending value", r.PendingValue, "50")
	if r.ApprovedCount != 2 || r.PendingCount != 2 {
		t.Errorf("expected 2 approved and 2 pending, got %d and %d", r.ApprovedCount, r.PendingCount)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := core.FormatMoney(dec("12.5")); got != "12.50" {
		t.Errorf("expected 12.50, got %s", got)
	}
	if got := core.FormatMoney(dec("-3")); got != "-3.00" {
		t.Errorf("expected -3.00, got %s", got)
	}
}
