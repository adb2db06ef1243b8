package service

import (
	"context"
	"strings"

	"recibo/internal/model"
	"recibo/internal/oracle"
	"recibo/internal/reconcile"

	"github.com/rs/zerolog"
)

// Verifier runs a receipt audit. *reconcile.Engine satisfies it.
type Verifier interface {
	Verify(ctx context.Context, req reconcile.Request) reconcile.Outcome
}

// verifyService implements VerifyService.
type verifyService struct {
	engine Verifier
	logger zerolog.Logger
}

// NewVerifyService creates a new verify service.
func NewVerifyService(engine Verifier, logger zerolog.Logger) VerifyService {
	return &verifyService{
		engine: engine,
		logger: logger.With().Str("service", "verify").Logger(),
	}
}

// Verify implements VerifyService.
func (s *verifyService) Verify(ctx context.Context, req model.VerifyReceiptRequest) reconcile.Outcome {
	return s.engine.Verify(ctx, s.buildRequest(req, req.UserItems))
}

func (s *verifyService) buildRequest(req model.VerifyReceiptRequest, items []model.Item) reconcile.Request {
	out := reconcile.Request{
		ReceiptText:  req.ReceiptText,
		Items:        items,
		StoreContext: strings.TrimSpace(req.StoreContext),
	}
	if out.Items == nil {
		out.Items = []model.Item{}
	}

	if strings.TrimSpace(req.ReceiptImage) != "" {
		img, err := oracle.ParseImage(req.ReceiptImage)
		if err != nil {
			// The engine degrades on its own when there is no text either.
			s.logger.Warn().Err(err).Msg("receipt image unusable")
		} else {
			out.ReceiptImage = &img
		}
	}
	return out
}
