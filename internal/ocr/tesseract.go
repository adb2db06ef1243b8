// Package ocr reads receipt text locally with the tesseract command-line tool.
package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"recibo/internal/model"
	"recibo/internal/oracle"

	"github.com/rs/zerolog"
)

// Config selects the tesseract binary and language pack.
type Config struct {
	Binary   string
	Language string
	PSM      int
}

// Tesseract is an oracle.TextExtractor that pipes the frame through tesseract.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger zerolog.Logger
}

var (
	reBoxNoise   = regexp.MustCompile(`[|¦]{2,}|_{3,}`)
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// NewTesseract creates a tesseract extractor. A nil runner uses os/exec.
func NewTesseract(cfg Config, runner Runner, logger zerolog.Logger) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	logger = logger.With().Str("component", "tesseract").Logger()
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

// ExtractText implements oracle.TextExtractor.
func (t *Tesseract) ExtractText(ctx context.Context, img oracle.Image) (string, error) {
	// tesseract stdin stdout -l <lang> [--psm N]
	args := []string{"stdin", "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}

	out, errb, err := t.runner.Run(ctx, img.Data, t.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v: %s", model.ErrExtractionFailed, err, truncate(strings.TrimSpace(string(errb)), 256))
	}

	text := Normalize(string(out))
	t.logger.Debug().Int("text_len", len(text)).Msg("tesseract extraction completed")
	return text, nil
}

// Normalize removes box-drawing noise and collapses blank runs in OCR output.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
