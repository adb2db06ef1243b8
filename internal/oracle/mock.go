package oracle

import (
	"context"
	"encoding/json"
	"time"

	"recibo/internal/model"
)

// mockIdentifier answers every request with the same canned product. It is
// used when no oracle credential is configured.
type mockIdentifier struct {
	latency time.Duration
}

// NewMockIdentifier creates an identifier that waits latency and then returns
// the fixed mock item.
func NewMockIdentifier(latency time.Duration) ItemIdentifier {
	return &mockIdentifier{latency: latency}
}

// IsMock reports whether identifier is the canned mock. The mock answers
// every request, including ones with no usable input.
func IsMock(identifier ItemIdentifier) bool {
	_, ok := identifier.(*mockIdentifier)
	return ok
}

// Identify implements ItemIdentifier.
func (m *mockIdentifier) Identify(ctx context.Context, _ IdentifyRequest) (string, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	b, err := json.Marshal(model.MockIdentification())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
