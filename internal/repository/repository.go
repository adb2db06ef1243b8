package repository

import (
	"context"

	"recibo/internal/model"

	"github.com/google/uuid"
)

// AuditRepository defines the data access operations for receipt audits.
// Audits are append-only: there is no update or delete.
type AuditRepository interface {
	// Save inserts a new audit record.
	Save(ctx context.Context, record model.AuditRecord) error

	// GetByID retrieves an audit by its ID. It returns nil, nil when no
	// audit has that ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.AuditRecord, error)

	// List retrieves audits newest first with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.AuditRecord, error)

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error
}
