package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"recibo/internal/middleware"
	"recibo/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	correlationID := middleware.CorrelationIDFromContext(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("error_code", code).
		Str("error", message).
		Int("status", status).
		Str("correlation_id", correlationID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	})
}

// writeDomainError maps err onto an HTTP status. Unknown errors become 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("unexpected error")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status := http.StatusBadRequest
	switch domainErr.Code {
	case model.ErrCodeSessionNotFound, model.ErrCodeItemNotFound, model.ErrCodeAuditNotFound:
		status = http.StatusNotFound
	case model.ErrCodeStorageDisabled:
		status = http.StatusServiceUnavailable
	}
	writeError(w, r, status, domainErr.Code, domainErr.Message, logger)
}

// decodeJSON reads the request body into dst and answers the request itself
// when the body is unusable. It reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodeRequestTooLarge, "request body too large", logger)
			return false
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid "+name+" parameter", logger)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int, logger zerolog.Logger) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid "+name+" parameter", logger)
		return 0, false
	}
	return v, true
}
