package oracle

import (
	"context"
	"errors"
	"fmt"

	"recibo/internal/model"

	"github.com/rs/zerolog"
)

// fallbackExtractor tries a primary extractor and falls back to a secondary
// one when the primary fails or reads nothing.
type fallbackExtractor struct {
	primary   TextExtractor
	secondary TextExtractor
	logger    zerolog.Logger
}

// NewFallbackExtractor creates an extractor that tries primary first, then
// secondary. If secondary is nil, primary is returned unchanged.
func NewFallbackExtractor(primary, secondary TextExtractor, logger zerolog.Logger) TextExtractor {
	if secondary == nil {
		return primary
	}
	return &fallbackExtractor{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-extractor").Logger(),
	}
}

// ExtractText implements TextExtractor.
func (e *fallbackExtractor) ExtractText(ctx context.Context, img Image) (string, error) {
	text, err := e.primary.ExtractText(ctx, img)
	if err == nil && text != "" {
		return text, nil
	}
	if err == nil {
		err = model.ErrExtractionEmpty
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %w", model.ErrExtractionFailed, err)
	}

	e.logger.Warn().
		Err(err).
		Msg("primary text extraction failed, falling back to secondary extractor")

	text, secondErr := e.secondary.ExtractText(ctx, img)
	if secondErr != nil {
		return "", fmt.Errorf("%w: %w", model.ErrExtractionFailed, errors.Join(err, secondErr))
	}
	return text, nil
}
