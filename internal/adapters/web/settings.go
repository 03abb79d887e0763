package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"commandx/internal/app"
)

// apiGetSettings handles GET /api/companies/{code}/settings.
func (h *Handler) apiGetSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSettings(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpdateSettings handles PUT /api/companies/{code}/settings.
func (h *Handler) apiUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCheckLockedPeriod handles GET /api/companies/{code}/locked-period/check?date=&entity=.
// A locked date is a 200 with valid=false.
func (h *Handler) apiCheckLockedPeriod(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, r, "date is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CheckLockedPeriod(r.Context(), companyCode(r), date, r.URL.Query().Get("entity"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiPreviewNumber handles GET /api/companies/{code}/numbers/{prefix}/next.
func (h *Handler) apiPreviewNumber(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.PreviewNextNumber(r.Context(), companyCode(r), chi.URLParam(r, "prefix"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateUser handles POST /api/companies/{code}/users.
func (h *Handler) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	var req app.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	user, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, user)
}
