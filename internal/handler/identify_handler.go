package handler

import (
	"errors"
	"net/http"

	"recibo/internal/model"
	"recibo/internal/service"

	"github.com/rs/zerolog"
)

// IdentifyHandler handles item identification requests.
type IdentifyHandler struct {
	service service.IdentifyService
	logger  zerolog.Logger
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(service service.IdentifyService, logger zerolog.Logger) *IdentifyHandler {
	return &IdentifyHandler{
		service: service,
		logger:  logger.With().Str("handler", "identify").Logger(),
	}
}

// Identify handles POST /api/identify-item requests.
//
// Every answer carries an item body so clients can display it either way:
// unusable input gets 400 and an oracle failure 500, both with the fallback
// item.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req model.IdentifyItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Identify(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, model.ErrMissingInput), errors.Is(err, model.ErrCaptureUnavailable):
		h.logger.Info().Err(err).Msg("unusable identification input, answering with fallback item")
		writeJSON(w, http.StatusBadRequest, result)
	default:
		h.logger.Warn().Err(err).Msg("identification failed, answering with fallback item")
		writeJSON(w, http.StatusInternalServerError, result)
	}
}
