package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"recibo/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// auditRepository implements AuditRepository using PostgreSQL.
type auditRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAuditRepository creates a new PostgreSQL-backed audit repository.
func NewAuditRepository(pool *pgxpool.Pool, logger zerolog.Logger) AuditRepository {
	return &auditRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "audit").Logger(),
	}
}

// Save inserts a new audit record.
func (r *auditRepository) Save(ctx context.Context, record model.AuditRecord) error {
	items := record.Items
	if items == nil {
		items = []model.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode items: %v", model.ErrPersistence, err)
	}

	verdict := record.VerificationResult.Normalize()
	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("%w: encode verdict: %v", model.ErrPersistence, err)
	}

	query := `
		INSERT INTO audits (id, created_at, store_context, items, verification_result, verified, discrepancy_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		record.ID,
		record.CreatedAt,
		record.StoreContext,
		string(itemsJSON),
		string(verdictJSON),
		verdict.Verified,
		len(verdict.Discrepancies),
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("audit_id", record.ID.String()).
			Msg("failed to insert audit")
		return fmt.Errorf("%w: insert audit: %w", model.ErrPersistence, err)
	}

	r.logger.Debug().
		Str("audit_id", record.ID.String()).
		Int("items", len(items)).
		Msg("audit saved successfully")

	return nil
}

// GetByID retrieves an audit by its ID.
func (r *auditRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AuditRecord, error) {
	query := `
		SELECT id, created_at, store_context, items, verification_result
		FROM audits
		WHERE id = $1
	`

	record, err := scanAudit(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("audit_id", id.String()).Msg("audit not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("audit_id", id.String()).Msg("failed to query audit")
		return nil, fmt.Errorf("failed to query audit: %w", err)
	}

	return &record, nil
}

// List retrieves audits newest first.
func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]model.AuditRecord, error) {
	query := `
		SELECT id, created_at, store_context, items, verification_result
		FROM audits
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query audits")
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	audits := []model.AuditRecord{}
	for rows.Next() {
		record, err := scanAudit(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan audit row")
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating audit rows")
		return nil, fmt.Errorf("error iterating audits: %w", err)
	}

	r.logger.Debug().
		Int("count", len(audits)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved audits")

	return audits, nil
}

// Ping checks that the database is reachable.
func (r *auditRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanAudit(row pgx.Row) (model.AuditRecord, error) {
	var (
		record      model.AuditRecord
		itemsJSON   []byte
		verdictJSON []byte
	)

	if err := row.Scan(&record.ID, &record.CreatedAt, &record.StoreContext, &itemsJSON, &verdictJSON); err != nil {
		return model.AuditRecord{}, err
	}
	record.CreatedAt = record.CreatedAt.UTC()

	if err := json.Unmarshal(itemsJSON, &record.Items); err != nil {
		return model.AuditRecord{}, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(verdictJSON, &record.VerificationResult); err != nil {
		return model.AuditRecord{}, fmt.Errorf("decode verdict: %w", err)
	}
	record.VerificationResult = record.VerificationResult.Normalize()

	return record, nil
}
