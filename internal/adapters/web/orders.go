package web

import (
	"net/http"

	"commandx/internal/app"
)

// apiListCustomers handles GET /api/companies/{code}/customers.
func (h *Handler) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// apiCreateCustomer handles POST /api/companies/{code}/customers.
func (h *Handler) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req app.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	customer, err := h.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, customer)
}

// apiListProjects handles GET /api/companies/{code}/projects.
func (h *Handler) apiListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, projects)
}

// apiCreateProject handles POST /api/companies/{code}/projects.
func (h *Handler) apiCreateProject(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	project, err := h.svc.CreateProject(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, project)
}

// apiGetProject handles GET /api/companies/{code}/projects/{id}.
func (h *Handler) apiGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	project, err := h.svc.GetProject(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, project)
}

// apiProjectFinancials handles GET /api/companies/{code}/projects/{id}/financials.
func (h *Handler) apiProjectFinancials(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.svc.GetProjectFinancials(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// apiListEstimates handles GET /api/companies/{code}/estimates?status=.
func (h *Handler) apiListEstimates(w http.ResponseWriter, r *http.Request) {
	estimates, err := h.svc.ListEstimates(r.Context(), companyCode(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, estimates)
}

// apiCreateEstimate handles POST /api/companies/{code}/estimates.
func (h *Handler) apiCreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req app.EstimateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	estimate, err := h.svc.CreateEstimate(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, estimate)
}

// apiGetEstimate handles GET /api/companies/{code}/estimates/{id}.
func (h *Handler) apiGetEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	estimate, err := h.svc.GetEstimate(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, estimate)
}

// apiUpdateEstimate handles PUT /api/companies/{code}/estimates/{id}.
func (h *Handler) apiUpdateEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.EstimateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	estimate, err := h.svc.UpdateEstimate(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, estimate)
}

// apiDeleteEstimate handles DELETE /api/companies/{code}/estimates/{id}.
func (h *Handler) apiDeleteEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEstimate(r.Context(), companyCode(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiEstimateStatus handles POST /api/companies/{code}/estimates/{id}/status.
func (h *Handler) apiEstimateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	change, err := h.svc.UpdateEstimateStatus(r.Context(), companyCode(r), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, change)
}

// apiBulkEstimateStatus handles POST /api/companies/{code}/estimates/bulk-status.
// Items succeed or fail independently; the response is 200 either way.
func (h *Handler) apiBulkEstimateStatus(w http.ResponseWriter, r *http.Request) {
	var req app.BulkStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.BulkUpdateEstimateStatus(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListJobOrders handles GET /api/companies/{code}/job-orders?status=.
func (h *Handler) apiListJobOrders(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListJobOrders(r.Context(), companyCode(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, jobs)
}

// apiGetJobOrder handles GET /api/companies/{code}/job-orders/{id}.
func (h *Handler) apiGetJobOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	job, err := h.svc.GetJobOrder(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, job)
}

// apiJobOrderStatus handles POST /api/companies/{code}/job-orders/{id}/status.
func (h *Handler) apiJobOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	job, err := h.svc.UpdateJobOrderStatus(r.Context(), companyCode(r), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, job)
}

// apiListInvoices handles GET /api/companies/{code}/invoices?status=&job_order_id=&customer_code=.
func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	jobOrderID, ok := queryInt(w, r, "job_order_id")
	if !ok {
		return
	}
	invoices, err := h.svc.ListInvoices(r.Context(), app.InvoiceListRequest{
		CompanyCode:  companyCode(r),
		Status:       r.URL.Query().Get("status"),
		JobOrderID:   jobOrderID,
		CustomerCode: r.URL.Query().Get("customer_code"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoices)
}

// apiCreateInvoice handles POST /api/companies/{code}/invoices.
func (h *Handler) apiCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	invoice, err := h.svc.CreateInvoice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, invoice)
}

// apiGetInvoice handles GET /api/companies/{code}/invoices/{id}.
func (h *Handler) apiGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	invoice, err := h.svc.GetInvoice(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiUpdateInvoice handles PUT /api/companies/{code}/invoices/{id}.
func (h *Handler) apiUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	invoice, err := h.svc.UpdateInvoice(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiInvoiceStatus handles POST /api/companies/{code}/invoices/{id}/status.
func (h *Handler) apiInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	invoice, err := h.svc.UpdateInvoiceStatus(r.Context(), companyCode(r), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiVoidInvoice handles POST /api/companies/{code}/invoices/{id}/void.
func (h *Handler) apiVoidInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	invoice, err := h.svc.VoidInvoice(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiListChangeOrders handles GET /api/companies/{code}/projects/{id}/change-orders.
func (h *Handler) apiListChangeOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	orders, err := h.svc.ListChangeOrders(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

// apiCreateChangeOrder handles POST /api/companies/{code}/change-orders.
func (h *Handler) apiCreateChangeOrder(w http.ResponseWriter, r *http.Request) {
	var req app.ChangeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	co, err := h.svc.CreateChangeOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, co)
}

// apiGetChangeOrder handles GET /api/companies/{code}/change-orders/{id}.
func (h *Handler) apiGetChangeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	co, err := h.svc.GetChangeOrder(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, co)
}

// apiChangeOrderStatus handles POST /api/companies/{code}/change-orders/{id}/status.
func (h *Handler) apiChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	co, err := h.svc.UpdateChangeOrderStatus(r.Context(), companyCode(r), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, co)
}
