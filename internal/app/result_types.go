package app

import (
	"time"

	"commandx/internal/core"
)

// UserSession is returned by a successful login.
type UserSession struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	CompanyID   int    `json:"company_id"`
	CompanyCode string `json:"company_code"`
	Role        string `json:"role"`
}

// SettingsResult is a company's settings plus the derived first open date.
type SettingsResult struct {
	Settings       *core.CompanySettings `json:"settings"`
	MinAllowedDate *time.Time            `json:"min_allowed_date,omitempty"`
}

// PurchaseOrderResult carries a purchase order and any warning raised while
// changing it.
type PurchaseOrderResult struct {
	PurchaseOrder *core.PurchaseOrder `json:"purchase_order"`
	Warning       string              `json:"warning,omitempty"`
}

// VendorBillResult carries a new bill and any over-billing warning.
type VendorBillResult struct {
	Bill    *core.VendorBill `json:"vendor_bill"`
	Warning string           `json:"warning,omitempty"`
}

// ComplianceScanResult lists the non-compliant workers of one company.
type ComplianceScanResult struct {
	CompanyCode string                     `json:"company_code"`
	AsOf        time.Time                  `json:"as_of"`
	Personnel   []core.PersonnelCompliance `json:"personnel"`
}

// NumberPreview is the number the next document in a sequence would get.
type NumberPreview struct {
	Prefix string `json:"prefix"`
	Next   string `json:"next"`
}
