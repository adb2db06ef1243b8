package service

import (
	"context"

	"recibo/internal/model"
	"recibo/internal/reconcile"

	"github.com/google/uuid"
)

// IdentifyService identifies scanned products.
type IdentifyService interface {
	// Identify returns a display-ready identification. When identification
	// fails the fallback identification is returned together with the cause.
	Identify(ctx context.Context, req model.IdentifyItemRequest) (model.Identification, error)
}

// VerifyService audits receipts against a list of cart items.
type VerifyService interface {
	// Verify always returns a display-ready outcome.
	Verify(ctx context.Context, req model.VerifyReceiptRequest) reconcile.Outcome
}

// AuditService reads persisted audits.
type AuditService interface {
	// Enabled reports whether audit storage is configured.
	Enabled() bool

	// List retrieves audits newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]model.AuditRecord, error)

	// GetByID retrieves a single audit.
	GetByID(ctx context.Context, id uuid.UUID) (*model.AuditRecord, error)
}

// SessionService manages shopping sessions and their carts.
type SessionService interface {
	// Create starts a session.
	Create(storeContext string) model.SessionView

	// Get returns the current state of a session.
	Get(id uuid.UUID) (model.SessionView, error)

	// Delete ends a session.
	Delete(id uuid.UUID) error

	// Reset clears the cart of a session.
	Reset(id uuid.UUID) (model.SessionView, error)

	// Scan inserts a placeholder item and resolves it in the background.
	Scan(ctx context.Context, id uuid.UUID, req model.IdentifyItemRequest) (int64, error)

	// AddItem adds a manually entered item.
	AddItem(id uuid.UUID, req model.ItemRequest) (int64, error)

	// EditItem changes the name and price of an item.
	EditItem(id uuid.UUID, itemID int64, req model.ItemRequest) error

	// RemoveItem deletes an item.
	RemoveItem(id uuid.UUID, itemID int64) error

	// Verify audits a receipt against the session's cart.
	Verify(ctx context.Context, id uuid.UUID, req model.VerifyReceiptRequest) (reconcile.Outcome, error)

	// Close waits for in-flight background identifications.
	Close(ctx context.Context) error
}
