package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recibo/internal/model"
	"recibo/internal/oracle"

	"github.com/rs/zerolog"
)

// identifyService implements IdentifyService on top of an oracle.
type identifyService struct {
	identifier oracle.ItemIdentifier
	mock       bool
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewIdentifyService creates a new identify service. A zero timeout leaves
// the deadline to the caller's context.
func NewIdentifyService(identifier oracle.ItemIdentifier, timeout time.Duration, logger zerolog.Logger) IdentifyService {
	return &identifyService{
		identifier: identifier,
		mock:       oracle.IsMock(identifier),
		timeout:    timeout,
		logger:     logger.With().Str("service", "identify").Logger(),
	}
}

// Identify implements IdentifyService.
func (s *identifyService) Identify(ctx context.Context, req model.IdentifyItemRequest) (model.Identification, error) {
	oracleReq, err := prepareIdentify(req)
	if err != nil {
		if !s.mock {
			return model.FallbackIdentification(), err
		}
		// Mock mode answers any body.
		oracleReq = oracle.IdentifyRequest{
			Text:         strings.TrimSpace(req.ScannedText),
			StoreContext: strings.TrimSpace(req.StoreContext),
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := s.identifier.Identify(ctx, oracleReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: timeout: %w", model.ErrOracleUnavailable, err)
		}
		s.logger.Warn().
			Err(err).
			Dur("elapsed", time.Since(started)).
			Msg("identification failed, using fallback item")
		return model.FallbackIdentification(), err
	}

	result, err := oracle.ParseIdentification(raw)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("raw", truncate(raw, 200)).
			Msg("identification answer unusable, using fallback item")
		return model.FallbackIdentification(), err
	}

	s.logger.Debug().
		Str("name", result.Name).
		Str("price", result.Price.String()).
		Bool("from_image", oracleReq.Image != nil).
		Dur("elapsed", time.Since(started)).
		Msg("item identified")

	return result, nil
}

// prepareIdentify validates the request and decodes its image. A request
// with usable text survives an undecodable image; one with neither is
// rejected before any cart or oracle work happens.
func prepareIdentify(req model.IdentifyItemRequest) (oracle.IdentifyRequest, error) {
	out := oracle.IdentifyRequest{
		Text:         strings.TrimSpace(req.ScannedText),
		StoreContext: strings.TrimSpace(req.StoreContext),
	}

	if strings.TrimSpace(req.Image) != "" {
		img, err := oracle.ParseImage(req.Image)
		switch {
		case err == nil:
			out.Image = &img
		case out.Text == "":
			return oracle.IdentifyRequest{}, err
		}
	}

	if out.Text == "" && out.Image == nil {
		return oracle.IdentifyRequest{}, model.ErrMissingInput
	}
	return out, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
