// Package reconcile audits a receipt against a cart.
//
// An audit moves through CAPTURED → EXTRACTING → ARBITRATING and ends either
// RESOLVED, with the arbiter's validated verdict, or DEGRADED, with the
// neutral verdict. Callers always get a verdict back; failures are logged
// with the state they happened in and never returned.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"recibo/internal/model"
	"recibo/internal/oracle"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the position of an audit in the pipeline.
type State string

// Audit states.
const (
	StateCaptured    State = "CAPTURED"
	StateExtracting  State = "EXTRACTING"
	StateArbitrating State = "ARBITRATING"
	StateResolved    State = "RESOLVED"
	StateDegraded    State = "DEGRADED"
)

// DefaultMinReceiptChars is the smallest amount of non-whitespace text an
// extraction must yield to be worth arbitrating.
const DefaultMinReceiptChars = 3

// AuditSink accepts resolved audits for persistence. Submit must not block.
type AuditSink interface {
	Submit(record model.AuditRecord) bool
}

// Request is one receipt audit.
type Request struct {
	ReceiptText  string
	ReceiptImage *oracle.Image
	Items        []model.Item
	StoreContext string
}

// Outcome is the result of an audit. Cause is set for degraded audits and is
// for logging and diagnostics only.
type Outcome struct {
	Verdict model.Verdict
	State   State
	// FailedIn is the state the audit was in when it degraded.
	FailedIn State
	Cause    error
	AuditID  uuid.UUID
}

// Config wires the engine's collaborators. A nil Extractor or Arbiter means
// that oracle is unavailable.
type Config struct {
	Extractor       oracle.TextExtractor
	Arbiter         oracle.Arbiter
	Sink            AuditSink
	MinReceiptChars int
	// PhaseTimeout bounds each oracle call. Zero means no extra bound.
	PhaseTimeout time.Duration
}

// Engine runs receipt audits.
type Engine struct {
	extractor    oracle.TextExtractor
	arbiter      oracle.Arbiter
	sink         AuditSink
	minChars     int
	phaseTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

// NewEngine creates a new reconciliation engine.
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	minChars := cfg.MinReceiptChars
	if minChars <= 0 {
		minChars = DefaultMinReceiptChars
	}
	return &Engine{
		extractor:    cfg.Extractor,
		arbiter:      cfg.Arbiter,
		sink:         cfg.Sink,
		minChars:     minChars,
		phaseTimeout: cfg.PhaseTimeout,
		now:          time.Now,
		logger:       logger.With().Str("component", "reconcile-engine").Logger(),
	}
}

// Verify audits req and always returns a display-ready outcome.
func (e *Engine) Verify(ctx context.Context, req Request) Outcome {
	items := make([]model.Item, len(req.Items))
	copy(items, req.Items)

	log := e.logger.With().
		Int("cart_items", len(items)).
		Str("store", req.StoreContext).
		Logger()
	log.Debug().Str("audit_state", string(StateCaptured)).Msg("receipt captured")

	text, err := e.extract(ctx, req)
	if err != nil {
		return e.degrade(log, StateExtracting, err)
	}

	verdict, err := e.arbitrate(ctx, items, text, req.StoreContext)
	if err != nil {
		return e.degrade(log, StateArbitrating, err)
	}

	record := model.AuditRecord{
		ID:                 uuid.New(),
		CreatedAt:          e.now().UTC().Truncate(time.Microsecond),
		StoreContext:       req.StoreContext,
		Items:              items,
		VerificationResult: verdict,
	}
	if e.sink != nil && !e.sink.Submit(record) {
		log.Warn().Str("audit_id", record.ID.String()).Msg("audit record not queued for persistence")
	}

	log.Info().
		Str("audit_state", string(StateResolved)).
		Str("audit_id", record.ID.String()).
		Bool("verified", verdict.Verified).
		Int("discrepancies", len(verdict.Discrepancies)).
		Msg("receipt audit resolved")

	return Outcome{Verdict: verdict, State: StateResolved, AuditID: record.ID}
}

func (e *Engine) extract(ctx context.Context, req Request) (string, error) {
	text := req.ReceiptText

	if strings.TrimSpace(text) == "" {
		switch {
		case req.ReceiptImage == nil:
			return "", fmt.Errorf("%w: no receipt text or image", model.ErrExtractionEmpty)
		case e.extractor == nil:
			return "", fmt.Errorf("%w: no text extractor configured", model.ErrOracleUnavailable)
		}

		phaseCtx, cancel := e.phase(ctx)
		defer cancel()

		var err error
		text, err = e.extractor.ExtractText(phaseCtx, *req.ReceiptImage)
		if err != nil {
			return "", classify(err, model.ErrExtractionFailed)
		}
	}

	if n := countSignificant(text); n < e.minChars {
		return "", fmt.Errorf("%w: %d significant characters, need %d", model.ErrExtractionEmpty, n, e.minChars)
	}
	return text, nil
}

func (e *Engine) arbitrate(ctx context.Context, items []model.Item, text, storeContext string) (model.Verdict, error) {
	if e.arbiter == nil {
		return model.Verdict{}, fmt.Errorf("%w: no arbiter configured", model.ErrOracleUnavailable)
	}

	phaseCtx, cancel := e.phase(ctx)
	defer cancel()

	raw, err := e.arbiter.Arbitrate(phaseCtx, oracle.ArbitrationRequest{
		Items:        items,
		ReceiptText:  text,
		StoreContext: storeContext,
	})
	if err != nil {
		return model.Verdict{}, classify(err, model.ErrOracleUnavailable)
	}

	return oracle.ParseVerdict(raw)
}

func (e *Engine) degrade(log zerolog.Logger, failedIn State, cause error) Outcome {
	log.Warn().
		Err(cause).
		Str("audit_state", string(StateDegraded)).
		Str("failed_in", string(failedIn)).
		Msg("receipt audit degraded to neutral verdict")

	return Outcome{
		Verdict:  model.NeutralVerdict(),
		State:    StateDegraded,
		FailedIn: failedIn,
		Cause:    cause,
	}
}

func (e *Engine) phase(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.phaseTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.phaseTimeout)
}

// classify maps err onto the failure taxonomy. Deadline expiry is an
// unavailable oracle; errors already in the taxonomy keep their class;
// everything else becomes fallback.
func classify(err, fallback error) error {
	switch {
	case errors.Is(err, model.ErrOracleUnavailable),
		errors.Is(err, model.ErrOracleMalformed),
		errors.Is(err, model.ErrExtractionFailed),
		errors.Is(err, model.ErrExtractionEmpty):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: timeout: %w", model.ErrOracleUnavailable, err)
	}
	return fmt.Errorf("%w: %w", fallback, err)
}

func countSignificant(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
