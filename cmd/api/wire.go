package main

import (
	"context"
	"fmt"

	"recibo/internal/config"
	"recibo/internal/ocr"
	"recibo/internal/oracle"
	"recibo/internal/oracle/chat"
	"recibo/internal/oracle/gemini"
	"recibo/internal/reconcile"
	"recibo/internal/vocab"

	"github.com/rs/zerolog"
)

// oracles holds the collaborators chosen from configuration. A nil extractor
// or arbiter makes every receipt audit degrade.
type oracles struct {
	identifier oracle.ItemIdentifier
	extractor  oracle.TextExtractor
	arbiter    oracle.Arbiter
}

// buildLexicon loads the qualifier word lists, from S3 first when enabled.
func buildLexicon(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*vocab.Lexicon, error) {
	if len(cfg.Vocab.Files) == 0 {
		return vocab.DefaultLexicon(), nil
	}

	fileLoader := vocab.NewFileLoader(logger)
	var s3Loader vocab.Loader

	if cfg.S3.Enabled {
		loader, err := vocab.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = loader
		}
	} else {
		logger.Info().Msg("using local file system for vocabulary files (S3 disabled)")
	}

	loader := vocab.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)
	return vocab.NewLexicon(ctx, cfg.Vocab.Files, loader, logger)
}

// buildOracles picks the identifier, text extractor and arbiter. Without a
// credential the identifier answers the mock item and no remote extractor or
// arbiter is configured; the local tesseract and heuristic engines work
// either way.
func buildOracles(ctx context.Context, cfg *config.Config, lexicon *vocab.Lexicon, logger zerolog.Logger) (oracles, error) {
	var o oracles

	switch {
	case !cfg.Oracle.Live():
		logger.Warn().Msg("no oracle credential configured, running in mock mode")
		o.identifier = oracle.NewMockIdentifier(cfg.Oracle.MockLatency)

	case cfg.Oracle.Provider == "gemini":
		backend, err := gemini.New(ctx, cfg.Oracle.APIKey, cfg.Oracle.GeminiModel, logger)
		if err != nil {
			return oracles{}, fmt.Errorf("failed to initialise gemini oracle: %w", err)
		}
		o.identifier, o.extractor, o.arbiter = backend, backend, backend

	default:
		client := chat.NewClient(chat.Config{
			APIKey:      cfg.Oracle.APIKey,
			BaseURL:     cfg.Oracle.BaseURL,
			VisionModel: cfg.Oracle.VisionModel,
			OCRModel:    cfg.Oracle.OCRModel,
			ChatModel:   cfg.Oracle.ChatModel,
			Timeout:     cfg.Oracle.Timeout,
		}, logger)
		o.identifier, o.extractor, o.arbiter = client, client.OCRExtractor(), client
	}

	if cfg.Engine.OCREngine == "tesseract" {
		o.extractor = ocr.NewTesseract(ocr.Config{
			Binary:   cfg.Tesseract.Binary,
			Language: cfg.Tesseract.Language,
			PSM:      cfg.Tesseract.PSM,
		}, nil, logger)
	}

	if cfg.Engine.Reconciler == "heuristic" {
		o.arbiter = reconcile.NewHeuristic(lexicon)
	}

	logger.Info().
		Bool("live", cfg.Oracle.Live()).
		Str("provider", cfg.Oracle.Provider).
		Str("ocr_engine", cfg.Engine.OCREngine).
		Str("reconciler", cfg.Engine.Reconciler).
		Bool("extractor", o.extractor != nil).
		Bool("arbiter", o.arbiter != nil).
		Msg("oracles configured")

	return o, nil
}
