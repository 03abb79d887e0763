package app

import (
	"context"

	"commandx/internal/core"
)

func (s *appService) ListEstimates(ctx context.Context, companyCode, status string) ([]core.Estimate, error) {
	st, err := parseStatus(core.KindEstimate, status)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Estimates.GetEstimates(ctx, company.ID, st)
}

func (s *appService) GetEstimate(ctx context.Context, companyCode string, estimateID int) (*core.Estimate, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Estimates.GetEstimate(ctx, company.ID, estimateID)
}

// estimateInput resolves the customer code and parses dates.
func (s *appService) estimateInput(ctx context.Context, companyID int, req EstimateRequest) (core.EstimateInput, error) {
	estimateDate, err := parseDate("estimate_date", req.EstimateDate)
	if err != nil {
		return core.EstimateInput{}, err
	}
	validUntil, err := parseOptDate("valid_until", req.ValidUntil)
	if err != nil {
		return core.EstimateInput{}, err
	}
	customer, err := s.svc.Customers.GetCustomerByCode(ctx, companyID, req.CustomerCode)
	if err != nil {
		return core.EstimateInput{}, err
	}
	return core.EstimateInput{
		CustomerID:   customer.ID,
		ProjectID:    req.ProjectID,
		EstimateDate: estimateDate,
		ValidUntil:   validUntil,
		TaxRate:      req.TaxRate,
		Lines:        toLineItems(req.Lines),
		Notes:        req.Notes,
	}, nil
}

func (s *appService) CreateEstimate(ctx context.Context, req EstimateRequest) (*core.Estimate, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	input, err := s.estimateInput(ctx, company.ID, req)
	if err != nil {
		return nil, err
	}
	return s.svc.Estimates.CreateEstimate(ctx, company.ID, input)
}

func (s *appService) UpdateEstimate(ctx context.Context, estimateID int, req EstimateRequest) (*core.Estimate, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	input, err := s.estimateInput(ctx, company.ID, req)
	if err != nil {
		return nil, err
	}
	return s.svc.Estimates.UpdateEstimate(ctx, company.ID, estimateID, input)
}

func (s *appService) UpdateEstimateStatus(ctx context.Context, companyCode string, estimateID int, status string) (*core.EstimateStatusChange, error) {
	to, err := parseStatus(core.KindEstimate, status)
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
	change, err := s.svc.Estimates.UpdateStatus(ctx, company.ID, estimateID, to)
	if err != nil {
		return nil, err
	}
	if change.JobOrder != nil {
		s.log.Info().Str("company", companyCode).Str("estimate", change.Estimate.Number).
			Str("job_order", change.JobOrder.Number).Msg("job order opened from approved estimate")
	}
	return change, nil
}

func (s *appService) BulkUpdateEstimateStatus(ctx context.Context, req BulkStatusRequest) (*core.BulkResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	to, err := parseStatus(core.KindEstimate, req.Status)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	result, err := s.svc.Estimates.BulkUpdateStatus(ctx, company.ID, req.IDs, to)
	if err != nil {
		return nil, err
	}
	if result.Failed > 0 {
		s.log.Warn().Str("company", req.CompanyCode).Str("target", string(to)).
			Int("succeeded", result.Succeeded).Int("failed", result.Failed).
			Msg("bulk estimate status change partially failed")
	}
	return result, nil
}

func (s *appService) DeleteEstimate(ctx context.Context, companyCode string, estimateID int) error {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return err
	}
	return s.svc.Estimates.DeleteEstimate(ctx, company.ID, estimateID)
}

func (s *appService) ListJobOrders(ctx context.Context, companyCode, status string) ([]core.JobOrder, error) {
	st, err := parseStatus(core.KindJobOrder, status)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.JobOrders.GetJobOrders(ctx, company.ID, st)
}

func (s *appService) GetJobOrder(ctx context.Context, companyCode string, jobOrderID int) (*core.JobOrder, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.JobOrders.GetJobOrder(ctx, company.ID, jobOrderID)
}

func (s *appService) UpdateJobOrderStatus(ctx context.Context, companyCode string, jobOrderID int, status string) (*core.JobOrder, error) {
	to, err := parseStatus(core.KindJobOrder, status)
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
	return s.svc.JobOrders.UpdateStatus(ctx, company.ID, jobOrderID, to)
}

func (s *appService) ListInvoices(ctx context.Context, req InvoiceListRequest) ([]core.Invoice, error) {
	st, err := parseStatus(core.KindInvoice, req.Status)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	filter := core.InvoiceFilter{Status: st, JobOrderID: req.JobOrderID}
	if req.CustomerCode != "" {
		customer, err := s.svc.Customers.GetCustomerByCode(ctx, company.ID, req.CustomerCode)
		if err != nil {
			return nil, err
		}
		filter.CustomerID = customer.ID
	}
	return s.svc.Invoices.GetInvoices(ctx, company.ID, filter)
}

func (s *appService) GetInvoice(ctx context.Context, companyCode string, invoiceID int) (*core.Invoice, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Invoices.GetInvoice(ctx, company.ID, invoiceID)
}

// invoiceInput resolves the customer code, when given, and parses dates.
// Without a customer code the job order's customer is used.
func (s *appService) invoiceInput(ctx context.Context, companyID int, req InvoiceRequest) (core.InvoiceInput, error) {
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return core.InvoiceInput{}, err
	}
	dueDate, err := parseOptDate("due_date", req.DueDate)
	if err != nil {
		return core.InvoiceInput{}, err
	}
	input := core.InvoiceInput{
		ProjectID:   req.ProjectID,
		JobOrderID:  req.JobOrderID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		TaxRate:     req.TaxRate,
		Lines:       toLineItems(req.Lines),
		Notes:       req.Notes,
	}
	if req.CustomerCode != "" {
		customer, err := s.svc.Customers.GetCustomerByCode(ctx, companyID, req.CustomerCode)
		if err != nil {
			return core.InvoiceInput{}, err
		}
		input.CustomerID = customer.ID
	}
	return input, nil
}

func (s *appService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*core.Invoice, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	input, err := s.invoiceInput(ctx, company.ID, req)
	if err != nil {
		return nil, err
	}
	return s.svc.Invoices.CreateInvoice(ctx, company.ID, input)
}

func (s *appService) UpdateInvoice(ctx context.Context, invoiceID int, req InvoiceRequest) (*core.Invoice, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	input, err := s.invoiceInput(ctx, company.ID, req)
	if err != nil {
		return nil, err
	}
	return s.svc.Invoices.UpdateInvoice(ctx, company.ID, invoiceID, input)
}

func (s *appService) UpdateInvoiceStatus(ctx context.Context, companyCode string, invoiceID int, status string) (*core.Invoice, error) {
	to, err := parseStatus(core.KindInvoice, status)
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
	return s.svc.Invoices.UpdateStatus(ctx, company.ID, invoiceID, to)
}

func (s *appService) VoidInvoice(ctx context.Context, companyCode string, invoiceID int) (*core.Invoice, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Invoices.VoidInvoice(ctx, company.ID, invoiceID)
}

func (s *appService) ListChangeOrders(ctx context.Context, companyCode string, projectID int) ([]core.ChangeOrder, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.ChangeOrders.GetChangeOrders(ctx, company.ID, projectID)
}

func (s *appService) GetChangeOrder(ctx context.Context, companyCode string, changeOrderID int) (*core.ChangeOrder, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.ChangeOrders.GetChangeOrder(ctx, company.ID, changeOrderID)
}

func (s *appService) CreateChangeOrder(ctx context.Context, req ChangeOrderRequest) (*core.ChangeOrder, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	changeType, err := core.ParseChangeType(req.ChangeType)
	if err != nil {
		return nil, invalidField("change_type", err.Error())
	}
	changeDate, err := parseDate("change_date", req.ChangeDate)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.ChangeOrders.CreateChangeOrder(ctx, company.ID, core.ChangeOrderInput{
		ProjectID:   req.ProjectID,
		JobOrderID:  req.JobOrderID,
		ChangeType:  changeType,
		ChangeDate:  changeDate,
		Description: req.Description,
		Reason:      req.Reason,
		TaxRate:     req.TaxRate,
		Lines:       toLineItems(req.Lines),
	})
}

func (s *appService) UpdateChangeOrderStatus(ctx context.Context, companyCode string, changeOrderID int, status string) (*core.ChangeOrder, error) {
	to, err := parseStatus(core.KindChangeOrder, status)
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
	return s.svc.ChangeOrders.UpdateStatus(ctx, company.ID, changeOrderID, to)
}
