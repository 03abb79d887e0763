package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"commandx/internal/app"
)

// apiListVendors handles GET /api/companies/{code}/vendors.
func (h *Handler) apiListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.svc.ListVendors(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vendors)
}

// apiCreateVendor handles POST /api/companies/{code}/vendors.
func (h *Handler) apiCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req app.CreateVendorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	vendor, err := h.svc.CreateVendor(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, vendor)
}

// apiGetVendor handles GET /api/companies/{code}/vendors/{vendorCode}.
func (h *Handler) apiGetVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.svc.GetVendor(r.Context(), companyCode(r), chi.URLParam(r, "vendorCode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vendor)
}

// apiTrashVendor handles DELETE /api/companies/{code}/vendors/{vendorCode}.
func (h *Handler) apiTrashVendor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.TrashVendor(r.Context(), companyCode(r), chi.URLParam(r, "vendorCode")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiListPurchaseOrders handles GET /api/companies/{code}/purchase-orders
// ?status=&billing_status=&vendor_code=&project_id=.
func (h *Handler) apiListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryInt(w, r, "project_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	pos, err := h.svc.ListPurchaseOrders(r.Context(), app.PurchaseOrderListRequest{
		CompanyCode:   companyCode(r),
		Status:        q.Get("status"),
		BillingStatus: q.Get("billing_status"),
		VendorCode:    q.Get("vendor_code"),
		ProjectID:     projectID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, pos)
}

// apiCreatePurchaseOrder handles POST /api/companies/{code}/purchase-orders.
func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req app.PurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	po, err := h.svc.CreatePurchaseOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, po)
}

// apiGetPurchaseOrder handles GET /api/companies/{code}/purchase-orders/{id}.
func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	po, err := h.svc.GetPurchaseOrder(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// apiPurchaseOrderStatus handles POST /api/companies/{code}/purchase-orders/{id}/status.
func (h *Handler) apiPurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	po, err := h.svc.UpdatePurchaseOrderStatus(r.Context(), companyCode(r), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// apiClosePurchaseOrder handles POST /api/companies/{code}/purchase-orders/{id}/close.
// An unbilled balance is reported in the warning field; the close still succeeds.
func (h *Handler) apiClosePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ClosePurchaseOrder(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReopenPurchaseOrder handles POST /api/companies/{code}/purchase-orders/{id}/reopen.
func (h *Handler) apiReopenPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	po, err := h.svc.ReopenPurchaseOrder(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, app.PurchaseOrderResult{PurchaseOrder: po})
}

// apiAddBackCharge handles POST /api/companies/{code}/purchase-orders/{id}/back-charges.
func (h *Handler) apiAddBackCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.BackChargeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)
	req.POID = id

	bc, err := h.svc.AddBackCharge(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, bc)
}

// apiListVendorBills handles GET /api/companies/{code}/purchase-orders/{id}/vendor-bills.
func (h *Handler) apiListVendorBills(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bills, err := h.svc.ListVendorBills(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, bills)
}

// apiCreateVendorBill handles POST /api/companies/{code}/vendor-bills.
// A bill against a PO closed for billing is rejected with 409.
func (h *Handler) apiCreateVendorBill(w http.ResponseWriter, r *http.Request) {
	var req app.VendorBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.CreateVendorBill(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiGetVendorBill handles GET /api/companies/{code}/vendor-bills/{id}.
func (h *Handler) apiGetVendorBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bill, err := h.svc.GetVendorBill(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, bill)
}

// apiVendorBillStatus handles POST /api/companies/{code}/vendor-bills/{id}/status.
func (h *Handler) apiVendorBillStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	bill, err := h.svc.UpdateVendorBillStatus(r.Context(), companyCode(r), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, bill)
}
