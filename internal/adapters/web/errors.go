package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bsm/redislock"

	"commandx/internal/app"
	"commandx/internal/core"
	"commandx/internal/logger"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps an error returned by the application layer onto a
// status code and error code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *app.ValidationError
	var te *core.TransitionError
	var pe *core.PeriodLockedError
	switch {
	case errors.As(err, &ve):
		writeErrorResponse(w, r, errorResponse{Error: err.Error(), Code: "VALIDATION_FAILED", Fields: ve.Fields}, http.StatusBadRequest)
	case errors.As(err, &te):
		writeError(w, r, te.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.As(err, &pe):
		writeError(w, r, pe.Error(), "PERIOD_LOCKED", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrPurchaseOrderClosed):
		writeError(w, r, err.Error(), "PO_CLOSED", http.StatusConflict)
	case errors.Is(err, core.ErrAlreadyClockedIn):
		writeError(w, r, err.Error(), "ALREADY_CLOCKED_IN", http.StatusConflict)
	case errors.Is(err, core.ErrOutsideGeofence):
		writeError(w, r, err.Error(), "OUTSIDE_GEOFENCE", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidCoordinates):
		writeError(w, r, err.Error(), "INVALID_COORDINATES", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, r, err.Error(), "UNPROCESSABLE", http.StatusUnprocessableEntity)
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, app.ErrTranslationUnavailable):
		writeError(w, r, err.Error(), "NOT_CONFIGURED", http.StatusServiceUnavailable)
	case errors.Is(err, redislock.ErrNotObtained):
		writeError(w, r, "document numbering is busy, retry shortly", "BUSY", http.StatusServiceUnavailable)
	default:
		log := logger.WithComponent("http")
		log.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", requestIDFromContext(r.Context())).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}
