package service

import (
	"context"
	"fmt"

	"recibo/internal/model"
	"recibo/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// auditService implements AuditService.
type auditService struct {
	auditRepo repository.AuditRepository
	logger    zerolog.Logger
}

// NewAuditService creates a new audit service. A nil repository means
// persistence is disabled; every read then fails with ErrStorageDisabled.
func NewAuditService(auditRepo repository.AuditRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger.With().Str("service", "audit").Logger(),
	}
}

// Enabled implements AuditService.
func (s *auditService) Enabled() bool {
	return s.auditRepo != nil
}

// List retrieves audits newest first with pagination.
func (s *auditService) List(ctx context.Context, limit, offset int) ([]model.AuditRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrStorageDisabled
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	audits, err := s.auditRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list audits")
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}

	s.logger.Debug().
		Int("count", len(audits)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved audits")

	return audits, nil
}

// GetByID retrieves a single audit.
func (s *auditService) GetByID(ctx context.Context, id uuid.UUID) (*model.AuditRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrStorageDisabled
	}

	audit, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("audit_id", id.String()).Msg("failed to get audit")
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	if audit == nil {
		s.logger.Debug().Str("audit_id", id.String()).Msg("audit not found")
		return nil, model.ErrAuditNotFound
	}

	return audit, nil
}
