package handler

import (
	"net/http"

	"recibo/internal/model"
	"recibo/internal/service"

	"github.com/rs/zerolog"
)

// AuditHandler handles stored audit requests.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("handler", "audit").Logger(),
	}
}

// List handles GET /api/audits requests with pagination.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 10, h.logger)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0, h.logger)
	if !ok {
		return
	}

	audits, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.AuditListResponse{
		Audits: audits,
		Limit:  limit,
		Offset: offset,
	})
}

// GetByID handles GET /api/audits/{id} requests.
func (h *AuditHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	audit, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, audit)
}
