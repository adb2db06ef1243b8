// Package oracle defines the contracts of the best-effort text and vision
// services the audit pipeline delegates to, and the boundary code that turns
// their free-form answers into validated structures.
package oracle

import (
	"context"

	"recibo/internal/model"
)

// TextExtractor converts a captured image into machine-readable text.
type TextExtractor interface {
	// ExtractText returns the text found in img.
	ExtractText(ctx context.Context, img Image) (string, error)
}

// IdentifyRequest describes a single scanned product.
type IdentifyRequest struct {
	Text         string
	Image        *Image
	StoreContext string
}

// ItemIdentifier guesses the name, price and icon of a scanned product.
// Implementations return the oracle's raw answer; callers parse it with
// ParseIdentification.
type ItemIdentifier interface {
	Identify(ctx context.Context, req IdentifyRequest) (string, error)
}

// ArbitrationRequest is the input of a receipt audit.
type ArbitrationRequest struct {
	Items        []model.Item
	ReceiptText  string
	StoreContext string
}

// Arbiter compares a cart against receipt text and reports discrepancies.
// Implementations return the oracle's raw answer; callers parse it with
// ParseVerdict.
type Arbiter interface {
	Arbitrate(ctx context.Context, req ArbitrationRequest) (string, error)
}

// TextExtractorFunc adapts a function to TextExtractor.
type TextExtractorFunc func(ctx context.Context, img Image) (string, error)

// ExtractText calls f.
func (f TextExtractorFunc) ExtractText(ctx context.Context, img Image) (string, error) {
	return f(ctx, img)
}

// ArbiterFunc adapts a function to Arbiter.
type ArbiterFunc func(ctx context.Context, req ArbitrationRequest) (string, error)

// Arbitrate calls f.
func (f ArbiterFunc) Arbitrate(ctx context.Context, req ArbitrationRequest) (string, error) {
	return f(ctx, req)
}

// ItemIdentifierFunc adapts a function to ItemIdentifier.
type ItemIdentifierFunc func(ctx context.Context, req IdentifyRequest) (string, error)

// Identify calls f.
func (f ItemIdentifierFunc) Identify(ctx context.Context, req IdentifyRequest) (string, error) {
	return f(ctx, req)
}
