package web

import (
	"net/http"

	"commandx/internal/app"
)

// apiTranslate handles POST /api/translate.
func (h *Handler) apiTranslate(w http.ResponseWriter, r *http.Request) {
	var req app.TranslateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Translate(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
