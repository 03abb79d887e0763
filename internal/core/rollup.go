package core

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Stored scales of the line and tax columns. Inputs are rounded to these
// before any total is computed, so a reloaded document re-totals the same.
const (
	quantityScale = 4
	priceScale    = 4
	markupScale   = 3
	taxRateScale  = 5
)

// LineItem is one priced row on an estimate, invoice, PO, or change order.
//
// A line is cost-plus when UnitCost is set: its effective unit price is the
// cost marked up by MarkupPercent (zero markup when nil). Otherwise UnitPrice
// is used as-is.
type LineItem struct {
	ID            int              `json:"id,omitempty"`
	LineNumber    int              `json:"line_number"`
	Description   string           `json:"description"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	MarkupPercent *decimal.Decimal `json:"markup_percent,omitempty"`
	LineTotal     decimal.Decimal  `json:"line_total"`
}

// RoundInputs returns l with quantity, prices, and markup rounded to their
// stored scales. Pointer fields are copied, never written through.
func (l LineItem) RoundInputs() LineItem {
	l.Quantity = l.Quantity.Round(quantityScale)
	l.UnitPrice = l.UnitPrice.Round(priceScale)
	if l.UnitCost != nil {
		c := l.UnitCost.Round(priceScale)
		l.UnitCost = &c
	}
	if l.MarkupPercent != nil {
		m := l.MarkupPercent.Round(markupScale)
		l.MarkupPercent = &m
	}
	return l
}

// EffectiveUnitPrice returns the price per unit after any cost-plus markup.
func (l LineItem) EffectiveUnitPrice() decimal.Decimal {
	if l.UnitCost == nil {
		return l.UnitPrice
	}
	price := *l.UnitCost
	if l.MarkupPercent != nil {
		price = price.Mul(one.Add(l.MarkupPercent.Div(hundred)))
	}
	return price
}

// Total returns quantity times the effective unit price, rounded to cents.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.EffectiveUnitPrice()).Round(2)
}

// Totals is the header rollup of a priced document.
// Total always equals Subtotal plus TaxAmount.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTotals sums line totals and applies taxRate (a fraction, 0.08 for 8%).
// Each line is rounded to its stored scales and its LineTotal filled in place.
func ComputeTotals(lines []LineItem, taxRate decimal.Decimal) Totals {
	taxRate = taxRate.Round(taxRateScale)
	subtotal := decimal.Zero
	for i := range lines {
		lines[i] = lines[i].RoundInputs()
		lines[i].LineTotal = lines[i].Total()
		subtotal = subtotal.Add(lines[i].LineTotal)
	}
	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{
		Subtotal:  subtotal,
		TaxRate:   taxRate,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

// ResolveTaxRate returns the document override when present, else the
// company default, rounded to the stored tax-rate scale.
func ResolveTaxRate(companyDefault decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return override.Round(taxRateScale)
	}
	return companyDefault.Round(taxRateScale)
}

// Billed is a billing document (invoice or vendor bill) as seen by rollups.
type Billed struct {
	Total  decimal.Decimal
	Status Status
}

// countsTowardBilling excludes voided documents. Both invoices and vendor
// bills spell their void status "void".
func (b Billed) countsTowardBilling() bool {
	return b.Status != InvoiceVoid
}

func sumBilled(docs []Billed) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range docs {
		if d.countsTowardBilling() {
			sum = sum.Add(d.Total)
		}
	}
	return sum
}

// percentOf returns part/total*100 rounded to two places, or zero when total
// is not positive.
func percentOf(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// JobOrderProgress is the invoicing position of a job order.
type JobOrderProgress struct {
	Total           decimal.Decimal `json:"total"`
	InvoicedAmount  decimal.Decimal `json:"invoiced_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
}

// ComputeJobOrderProgress rolls up linked invoices against a job order total.
// Void invoices are ignored and the remaining amount never goes below zero.
func ComputeJobOrderProgress(total decimal.Decimal, invoices []Billed) JobOrderProgress {
	invoiced := sumBilled(invoices)
	return JobOrderProgress{
		Total:           total,
		InvoicedAmount:  invoiced,
		RemainingAmount: clampZero(total.Sub(invoiced)),
		ProgressPercent: percentOf(invoiced, total),
	}
}

// POBillingSummary is the vendor-billing position of a purchase order.
// Back charges reduce NetPayable but never the nominal Total.
type POBillingSummary struct {
	Total           decimal.Decimal `json:"total"`
	Billed          decimal.Decimal `json:"billed"`
	Remaining       decimal.Decimal `json:"remaining"`
	BackCharges     decimal.Decimal `json:"back_charges"`
	NetPayable      decimal.Decimal `json:"net_payable"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
}

// ComputePOBillingSummary rolls up vendor bills and back charges against a PO.
func ComputePOBillingSummary(total decimal.Decimal, bills []Billed, backCharges []decimal.Decimal) POBillingSummary {
	billed := sumBilled(bills)
	charges := decimal.Zero
	for _, c := range backCharges {
		charges = charges.Add(c)
	}
	return POBillingSummary{
		Total:           total,
		Billed:          billed,
		Remaining:       clampZero(total.Sub(billed)),
		BackCharges:     charges,
		NetPayable:      clampZero(billed.Sub(charges)),
		ProgressPercent: percentOf(billed, total),
	}
}

// ChangeOrderAmount is a change order as seen by the project rollup.
type ChangeOrderAmount struct {
	Total      decimal.Decimal
	ChangeType ChangeType
	Status     Status
}

// SignedTotal is Total for additive orders and -Total for deductive ones.
func (c ChangeOrderAmount) SignedTotal() decimal.Decimal {
	if c.ChangeType == ChangeDeductive {
		return c.Total.Neg()
	}
	return c.Total
}

// ChangeOrderRollup aggregates change orders for a project.
type ChangeOrderRollup struct {
	ApprovedValue decimal.Decimal `json:"approved_value"`
	ApprovedCount int             `json:"approved_count"`
	PendingValue  decimal.Decimal `json:"pending_value"`
	PendingCount  int             `json:"pending_count"`
}

// ComputeChangeOrderRollup sums signed change-order values. Approved and
// signed orders count toward ApprovedValue; draft and pending-approval orders
// toward PendingValue; rejected orders are ignored.
func ComputeChangeOrderRollup(orders []ChangeOrderAmount) ChangeOrderRollup {
	r := ChangeOrderRollup{ApprovedValue: decimal.Zero, PendingValue: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case ChangeOrderApproved, ChangeOrderSigned:
			r.ApprovedValue = r.ApprovedValue.Add(o.SignedTotal())
			r.ApprovedCount++
		case ChangeOrderDraft, ChangeOrderPendingApproval:
			r.PendingValue = r.PendingValue.Add(o.SignedTotal())
			r.PendingCount++
		}
	}
	return r
}

// FormatMoney renders an amount with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
