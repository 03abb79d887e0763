package app

import (
	"context"

	"commandx/internal/core"
)

func (s *appService) ListPurchaseOrders(ctx context.Context, req PurchaseOrderListRequest) ([]core.PurchaseOrder, error) {
	st, err := parseStatus(core.KindPurchaseOrder, req.Status)
	if err != nil {
		return nil, err
	}
	filter := core.PurchaseOrderFilter{Status: st, ProjectID: req.ProjectID}
	if req.BillingStatus != "" {
		flag, err := core.ParseBillingFlag(req.BillingStatus)
		if err != nil {
			return nil, invalidField("billing_status", err.Error())
		}
		filter.BillingStatus = flag
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	if req.VendorCode != "" {
		vendor, err := s.svc.Vendors.GetVendorByCode(ctx, company.ID, req.VendorCode)
		if err != nil {
			return nil, err
		}
		filter.VendorID = vendor.ID
	}
	return s.svc.PurchaseOrders.GetPOs(ctx, company.ID, filter)
}

func (s *appService) GetPurchaseOrder(ctx context.Context, companyCode string, poID int) (*core.PurchaseOrder, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.PurchaseOrders.GetPO(ctx, company.ID, poID)
}

func (s *appService) CreatePurchaseOrder(ctx context.Context, req PurchaseOrderRequest) (*core.PurchaseOrder, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	poDate, err := parseDate("po_date", req.PODate)
	if err != nil {
		return nil, err
	}
	delivery, err := parseOptDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	vendor, err := s.svc.Vendors.GetVendorByCode(ctx, company.ID, req.VendorCode)
	if err != nil {
		return nil, err
	}
	return s.svc.PurchaseOrders.CreatePO(ctx, company.ID, core.PurchaseOrderInput{
		VendorID:             vendor.ID,
		ProjectID:            req.ProjectID,
		JobOrderID:           req.JobOrderID,
		PODate:               poDate,
		ExpectedDeliveryDate: delivery,
		TaxRate:              req.TaxRate,
		Lines:                toLineItems(req.Lines),
		Notes:                req.Notes,
	})
}

func (s *appService) UpdatePurchaseOrderStatus(ctx context.Context, companyCode string, poID int, status string) (*core.PurchaseOrder, error) {
	to, err := parseStatus(core.KindPurchaseOrder, status)
	if err != nil {
		return nil, err
	}
	if to == "" {
		return nil, invalidField("status", "required")
	}
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.PurchaseOrders.UpdateStatus(ctx, company.ID, poID, to)
}

func (s *appService) ClosePurchaseOrder(ctx context.Context, companyCode string, poID int) (*PurchaseOrderResult, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	po, warning, err := s.svc.PurchaseOrders.ClosePO(ctx, company.ID, poID)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		s.log.Warn().Str("company", companyCode).Str("po", po.Number).
			Str("remaining", core.FormatMoney(po.Billing.Remaining)).
			Msg("purchase order closed with unbilled balance")
	}
	return &PurchaseOrderResult{PurchaseOrder: po, Warning: warning}, nil
}

func (s *appService) ReopenPurchaseOrder(ctx context.Context, companyCode string, poID int) (*core.PurchaseOrder, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.PurchaseOrders.ReopenPO(ctx, company.ID, poID)
}

func (s *appService) AddBackCharge(ctx context.Context, req BackChargeRequest) (*core.BackCharge, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	chargeDate, err := parseDate("charge_date", req.ChargeDate)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.PurchaseOrders.AddBackCharge(ctx, company.ID, req.POID, core.BackChargeInput{
		Amount:     req.Amount,
		Reason:     req.Reason,
		ChargeDate: chargeDate,
	})
}

func (s *appService) ListVendorBills(ctx context.Context, companyCode string, poID int) ([]core.VendorBill, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.VendorBills.GetBillsByPO(ctx, company.ID, poID)
}

func (s *appService) GetVendorBill(ctx context.Context, companyCode string, billID int) (*core.VendorBill, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.VendorBills.GetBill(ctx, company.ID, billID)
}

func (s *appService) CreateVendorBill(ctx context.Context, req VendorBillRequest) (*VendorBillResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	billDate, err := parseDate("bill_date", req.BillDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseOptDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	bill, warning, err := s.svc.VendorBills.CreateBill(ctx, company.ID, core.VendorBillInput{
		PurchaseOrderID: req.POID,
		VendorReference: req.VendorReference,
		BillDate:        billDate,
		DueDate:         dueDate,
		Total:           req.Total,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, err
	}
	if warning != "" {
		s.log.Warn().Str("company", req.CompanyCode).Str("bill", bill.Number).
			Str("po", bill.PONumber).Msg(warning)
	}
	return &VendorBillResult{Bill: bill, Warning: warning}, nil
}

func (s *appService) UpdateVendorBillStatus(ctx context.Context, companyCode string, billID int, status string) (*core.VendorBill, error) {
	to, err := parseStatus(core.KindVendorBill, status)
	if err != nil {
		return nil, err
	}
	if to == "" {
		return nil, invalidField("status", "required")
	}
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.VendorBills.UpdateStatus(ctx, company.ID, billID, to)
}
