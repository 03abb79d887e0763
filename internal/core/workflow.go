package core

import "fmt"

// FollowUp names a command that must run after a status change commits.
type FollowUp string

const (
	// FollowUpCreateJobOrder asks for a job order to be opened from the
	// estimate that was just approved.
	FollowUpCreateJobOrder FollowUp = "create_job_order"
	// FollowUpCloseBilling closes the billing flag of a purchase order that
	// reached a terminal status.
	FollowUpCloseBilling FollowUp = "close_billing"
)

// TransitionPlan is the outcome of planning a status change. A plan with
// NoOp set means the document is already in the target status and nothing
// should be written.
type TransitionPlan struct {
	Kind      DocumentKind
	From      Status
	To        Status
	NoOp      bool
	FollowUps []FollowUp
}

// Has reports whether the plan carries the given follow-up.
func (p TransitionPlan) Has(f FollowUp) bool {
	for _, x := range p.FollowUps {
		if x == f {
			return true
		}
	}
	return false
}

// PlanTransition validates a status change and lists the follow-up commands it
// triggers. It performs no I/O.
func PlanTransition(kind DocumentKind, from, to Status) (TransitionPlan, error) {
	plan := TransitionPlan{Kind: kind, From: from, To: to}
	if err := checkTransition(kind, from, to); err != nil {
		return plan, err
	}
	if from == to {
		plan.NoOp = true
		return plan, nil
	}

	switch kind {
	case KindEstimate:
		if to == EstimateApproved {
			plan.FollowUps = append(plan.FollowUps, FollowUpCreateJobOrder)
		}
	case KindPurchaseOrder:
		if to == POCancelled {
			plan.FollowUps = append(plan.FollowUps, FollowUpCloseBilling)
		}
	}
	return plan, nil
}

// PlanEstimateTransition is PlanTransition for estimates.
func PlanEstimateTransition(from, to Status) (TransitionPlan, error) {
	return PlanTransition(KindEstimate, from, to)
}

// ReopenedPOStatus is the status every reopened purchase order lands in,
// whatever it was before closing.
const ReopenedPOStatus = POInProgress

// ClosePOWarning returns a non-empty warning when a purchase order is closed
// while an unbilled balance remains. Closing is never refused.
func ClosePOWarning(summary POBillingSummary) string {
	if !summary.Remaining.IsPositive() {
		return ""
	}
	return fmt.Sprintf("purchase order closed with %s still unbilled (billed %s of %s)",
		FormatMoney(summary.Remaining), FormatMoney(summary.Billed), FormatMoney(summary.Total))
}

// BulkItemResult reports the outcome of one document in a bulk status change.
type BulkItemResult struct {
	ID        int        `json:"id"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	FollowUps []FollowUp `json:"follow_ups,omitempty"`
}

// BulkResult collects per-item outcomes. Items are applied independently.
type BulkResult struct {
	Target    Status           `json:"target"`
	Items     []BulkItemResult `json:"items"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

func (r *BulkResult) add(item BulkItemResult) {
	r.Items = append(r.Items, item)
	if item.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}
