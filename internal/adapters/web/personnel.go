package web

import (
	"net/http"
	"strconv"
	"time"

	"commandx/internal/app"
)

// apiListPersonnel handles GET /api/companies/{code}/personnel?include_deleted=.
func (h *Handler) apiListPersonnel(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))
	list, err := h.svc.ListPersonnel(r.Context(), companyCode(r), includeDeleted)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, list)
}

// apiCreatePersonnel handles POST /api/companies/{code}/personnel.
func (h *Handler) apiCreatePersonnel(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePersonnelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	p, err := h.svc.CreatePersonnel(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, p)
}

// apiGetPersonnel handles GET /api/companies/{code}/personnel/{id}.
func (h *Handler) apiGetPersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPersonnel(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiTrashPersonnel handles DELETE /api/companies/{code}/personnel/{id}.
func (h *Handler) apiTrashPersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.TrashPersonnel(r.Context(), companyCode(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiRestorePersonnel handles POST /api/companies/{code}/personnel/{id}/restore.
func (h *Handler) apiRestorePersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.RestorePersonnel(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiUpdateCompliance handles PUT /api/companies/{code}/personnel/{id}/compliance.
func (h *Handler) apiUpdateCompliance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ComplianceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)
	req.PersonnelID = id

	p, err := h.svc.UpdateCompliance(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiEvaluateCompliance handles GET /api/companies/{code}/personnel/{id}/compliance.
func (h *Handler) apiEvaluateCompliance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.EvaluateCompliance(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiAddCertification handles POST /api/companies/{code}/personnel/{id}/certifications.
func (h *Handler) apiAddCertification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.CertificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)
	req.PersonnelID = id

	cert, err := h.svc.AddCertification(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, cert)
}

// apiNonCompliant handles GET /api/companies/{code}/personnel/non-compliant.
func (h *Handler) apiNonCompliant(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ScanCompliance(r.Context(), companyCode(r), time.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListTimeEntries handles GET /api/companies/{code}/time-entries
// ?personnel_id=&project_id=&from=&to=.
func (h *Handler) apiListTimeEntries(w http.ResponseWriter, r *http.Request) {
	personnelID, ok := queryInt(w, r, "personnel_id")
	if !ok {
		return
	}
	projectID, ok := queryInt(w, r, "project_id")
	if !ok {
		return
	}
	entries, err := h.svc.ListTimeEntries(r.Context(), app.TimeEntryListRequest{
		CompanyCode: companyCode(r),
		PersonnelID: personnelID,
		ProjectID:   projectID,
		From:        r.URL.Query().Get("from"),
		To:          r.URL.Query().Get("to"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// apiClockIn handles POST /api/companies/{code}/time-entries/clock-in.
func (h *Handler) apiClockIn(w http.ResponseWriter, r *http.Request) {
	var req app.ClockInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	entry, err := h.svc.ClockIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, entry)
}

// apiClockOut handles POST /api/companies/{code}/time-entries/clock-out.
func (h *Handler) apiClockOut(w http.ResponseWriter, r *http.Request) {
	var req app.ClockOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	entry, err := h.svc.ClockOut(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}
