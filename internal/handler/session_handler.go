package handler

import (
	"errors"
	"net/http"
	"strconv"

	"recibo/internal/model"
	"recibo/internal/service"

	"github.com/rs/zerolog"
)

// SessionHandler handles shopping session requests.
type SessionHandler struct {
	service service.SessionService
	logger  zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service service.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger.With().Str("handler", "session").Logger(),
	}
}

// Create handles POST /api/sessions requests. An empty body is allowed.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, h.logger) {
		return
	}

	writeJSON(w, http.StatusCreated, h.service.Create(req.StoreContext))
}

// Get handles GET /api/sessions/{id} requests.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	view, err := h.service.Get(id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/sessions/{id} requests.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(id); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/sessions/{id}/reset requests.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	view, err := h.service.Reset(id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Scan handles POST /api/sessions/{id}/scan requests. The placeholder id is
// returned at once; the item resolves in the background.
func (h *SessionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.IdentifyItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	itemID, err := h.service.Scan(r.Context(), id, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, model.ScanResponse{ID: itemID})
	case errors.Is(err, model.ErrCaptureUnavailable):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeCaptureUnavailable, "image could not be read", h.logger)
	case errors.Is(err, service.ErrShuttingDown):
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError, "server is shutting down", h.logger)
	default:
		writeDomainError(w, r, err, h.logger)
	}
}

// AddItem handles POST /api/sessions/{id}/items requests.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.ItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	itemID, err := h.service.AddItem(id, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, model.ScanResponse{ID: itemID})
}

// EditItem handles PUT /api/sessions/{id}/items/{itemId} requests.
func (h *SessionHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req model.ItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if err := h.service.EditItem(id, itemID, req); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	view, err := h.service.Get(id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/sessions/{id}/items/{itemId} requests.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveItem(id, itemID); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify handles POST /api/sessions/{id}/verify requests.
func (h *SessionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.VerifyReceiptRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	outcome, err := h.service.Verify(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeOutcome(w, outcome)
}

func (h *SessionHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil || itemID <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid itemId parameter", h.logger)
		return 0, false
	}
	return itemID, true
}
