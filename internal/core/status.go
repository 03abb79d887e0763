package core

import (
	"fmt"
	"slices"
)

// DocumentKind identifies which status taxonomy a document follows.
type DocumentKind string

const (
	KindEstimate      DocumentKind = "estimate"
	KindJobOrder      DocumentKind = "job_order"
	KindPurchaseOrder DocumentKind = "purchase_order"
	KindInvoice       DocumentKind = "invoice"
	KindChangeOrder   DocumentKind = "change_order"
	KindVendorBill    DocumentKind = "vendor_bill"
)

// Status is a lifecycle state. Valid values depend on the DocumentKind.
type Status string

const (
	EstimateDraft    Status = "draft"
	EstimatePending  Status = "pending"
	EstimateApproved Status = "approved"
	EstimateSent     Status = "sent"
	EstimateClosed   Status = "closed"
)

const (
	JobOrderActive     Status = "active"
	JobOrderInProgress Status = "in_progress"
	JobOrderOnHold     Status = "on_hold"
	JobOrderCompleted  Status = "completed"
	JobOrderCancelled  Status = "cancelled"
)

const (
	PODraft        Status = "draft"
	POSent         Status = "sent"
	POAcknowledged Status = "acknowledged"
	POInProgress   Status = "in_progress"
	POCompleted    Status = "completed"
	POCancelled    Status = "cancelled"
)

const (
	InvoiceDraft         Status = "draft"
	InvoiceSent          Status = "sent"
	InvoicePartiallyPaid Status = "partially_paid"
	InvoicePaid          Status = "paid"
	InvoiceOverdue       Status = "overdue"
	InvoiceVoid          Status = "void"
)

const (
	ChangeOrderDraft           Status = "draft"
	ChangeOrderPendingApproval Status = "pending_approval"
	ChangeOrderApproved        Status = "approved"
	ChangeOrderRejected        Status = "rejected"
	ChangeOrderSigned          Status = "signed"
)

const (
	VendorBillDraft         Status = "draft"
	VendorBillOpen          Status = "open"
	VendorBillPartiallyPaid Status = "partially_paid"
	VendorBillPaid          Status = "paid"
	VendorBillVoid          Status = "void"
)

// BillingFlag is the open/closed billing gate on a purchase order. It is
// orthogonal to the PO's Status.
type BillingFlag string

const (
	BillingOpen   BillingFlag = "open"
	BillingClosed BillingFlag = "closed"
)

// ChangeType decides the sign a change order contributes to project rollups.
type ChangeType string

const (
	ChangeAdditive  ChangeType = "additive"
	ChangeDeductive ChangeType = "deductive"
)

var allowedTransitions = map[DocumentKind]map[Status]map[Status]bool{
	KindEstimate: {
		EstimateDraft:    {EstimatePending: true, EstimateApproved: true, EstimateSent: true, EstimateClosed: true},
		EstimatePending:  {EstimateDraft: true, EstimateApproved: true, EstimateSent: true, EstimateClosed: true},
		EstimateApproved: {EstimateSent: true, EstimateClosed: true, EstimatePending: true},
		EstimateSent:     {EstimateApproved: true, EstimateClosed: true},
		EstimateClosed:   {EstimateDraft: true},
	},
	KindJobOrder: {
		JobOrderActive:     {JobOrderInProgress: true, JobOrderOnHold: true, JobOrderCompleted: true, JobOrderCancelled: true},
		JobOrderInProgress: {JobOrderOnHold: true, JobOrderCompleted: true, JobOrderCancelled: true},
		JobOrderOnHold:     {JobOrderInProgress: true, JobOrderCancelled: true},
		JobOrderCompleted:  {JobOrderInProgress: true},
		JobOrderCancelled:  {},
	},
	KindPurchaseOrder: {
		PODraft:        {POSent: true, POCancelled: true},
		POSent:         {POAcknowledged: true, POInProgress: true, POCancelled: true},
		POAcknowledged: {POInProgress: true, POCancelled: true},
		POInProgress:   {POCompleted: true, POCancelled: true},
		POCompleted:    {POInProgress: true},
		POCancelled:    {POInProgress: true},
	},
	KindInvoice: {
		InvoiceDraft:         {InvoiceSent: true, InvoiceVoid: true},
		InvoiceSent:          {InvoicePartiallyPaid: true, InvoicePaid: true, InvoiceOverdue: true, InvoiceVoid: true},
		InvoicePartiallyPaid: {InvoicePaid: true, InvoiceOverdue: true},
		InvoiceOverdue:       {InvoicePartiallyPaid: true, InvoicePaid: true, InvoiceVoid: true},
		InvoicePaid:          {},
		InvoiceVoid:          {},
	},
	KindChangeOrder: {
		ChangeOrderDraft:           {ChangeOrderPendingApproval: true, ChangeOrderApproved: true},
		ChangeOrderPendingApproval: {ChangeOrderApproved: true, ChangeOrderRejected: true, ChangeOrderDraft: true},
		ChangeOrderApproved:        {ChangeOrderSigned: true, ChangeOrderRejected: true},
		ChangeOrderRejected:        {ChangeOrderDraft: true},
		ChangeOrderSigned:          {},
	},
	KindVendorBill: {
		VendorBillDraft:         {VendorBillOpen: true, VendorBillVoid: true},
		VendorBillOpen:          {VendorBillPartiallyPaid: true, VendorBillPaid: true, VendorBillVoid: true},
		VendorBillPartiallyPaid: {VendorBillPaid: true},
		VendorBillPaid:          {},
		VendorBillVoid:          {},
	},
}

// ParseStatus validates s against the taxonomy for kind.
func ParseStatus(kind DocumentKind, s string) (Status, error) {
	states, ok := allowedTransitions[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind: %s", kind)
	}
	if _, ok := states[Status(s)]; !ok {
		return "", fmt.Errorf("unknown %s status: %q", kind, s)
	}
	return Status(s), nil
}

// Statuses returns every valid status for kind, sorted.
func Statuses(kind DocumentKind) []Status {
	states := allowedTransitions[kind]
	out := make([]Status, 0, len(states))
	for s := range states {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// CanTransition reports whether a document of the given kind may move from one
// status to another. Staying in the same status is always allowed.
func CanTransition(kind DocumentKind, from, to Status) bool {
	states, ok := allowedTransitions[kind]
	if !ok {
		return false
	}
	next, ok := states[from]
	if !ok {
		return false
	}
	if _, ok := states[to]; !ok {
		return false
	}
	return from == to || next[to]
}

// checkTransition returns a *TransitionError when the move is not allowed.
func checkTransition(kind DocumentKind, from, to Status) error {
	if !CanTransition(kind, from, to) {
		return &TransitionError{Kind: kind, From: from, To: to}
	}
	return nil
}

// ParseBillingFlag validates an open/closed billing flag.
func ParseBillingFlag(s string) (BillingFlag, error) {
	switch BillingFlag(s) {
	case BillingOpen, BillingClosed:
		return BillingFlag(s), nil
	default:
		return "", fmt.Errorf("unknown billing flag: %q", s)
	}
}

// ParseChangeType validates a change order's change_type.
func ParseChangeType(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case ChangeAdditive, ChangeDeductive:
		return ChangeType(s), nil
	default:
		return "", fmt.Errorf("unknown change type: %q", s)
	}
}
