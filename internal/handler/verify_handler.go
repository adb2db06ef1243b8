package handler

import (
	"net/http"

	"recibo/internal/model"
	"recibo/internal/reconcile"
	"recibo/internal/service"

	"github.com/rs/zerolog"
)

// AuditStateHeader reports how a receipt audit ended.
const AuditStateHeader = "X-Audit-State"

// VerifyHandler handles stateless receipt audits.
type VerifyHandler struct {
	service service.VerifyService
	logger  zerolog.Logger
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(service service.VerifyService, logger zerolog.Logger) *VerifyHandler {
	return &VerifyHandler{
		service: service,
		logger:  logger.With().Str("handler", "verify").Logger(),
	}
}

// Verify handles POST /api/verify-receipt requests. The verdict is always
// answered with 200, degraded or not.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyReceiptRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	writeOutcome(w, h.service.Verify(r.Context(), req))
}

func writeOutcome(w http.ResponseWriter, outcome reconcile.Outcome) {
	w.Header().Set(AuditStateHeader, string(outcome.State))
	writeJSON(w, http.StatusOK, outcome.Verdict.Normalize())
}
