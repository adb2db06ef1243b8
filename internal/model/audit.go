package model

import (
	"time"

	"github.com/google/uuid"
)

// Discrepancy is a single flagged mismatch between the cart and a receipt.
type Discrepancy struct {
	ItemName string `json:"itemName"`
	Issue    string `json:"issue"`
}

// Verdict is the stable result shape of a receipt audit.
type Verdict struct {
	Verified      bool          `json:"verified"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// NeutralVerdict is returned when an audit cannot be completed.
func NeutralVerdict() Verdict {
	return Verdict{Verified: false, Discrepancies: []Discrepancy{}}
}

// Normalize guarantees a non-nil discrepancy list and never reports a
// receipt as verified while discrepancies are present.
func (v Verdict) Normalize() Verdict {
	if v.Discrepancies == nil {
		v.Discrepancies = []Discrepancy{}
	}
	if len(v.Discrepancies) > 0 {
		v.Verified = false
	}
	return v
}

// AuditRecord is a persisted, write-once snapshot of a completed audit.
type AuditRecord struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	StoreContext       string    `json:"storeContext,omitempty" db:"store_context"`
	Items              []Item    `json:"items" db:"items"`
	VerificationResult Verdict   `json:"verificationResult" db:"verification_result"`
}
