// Package gemini implements the oracle contracts on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recibo/internal/model"
	"recibo/internal/oracle"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// generator is the subset of *genai.Models used by the backend.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Backend serves identification, extraction and arbitration from one
// multimodal model.
type Backend struct {
	models generator
	model  string
	logger zerolog.Logger
}

// New creates a Gemini backend.
func New(ctx context.Context, apiKey, modelName string, logger zerolog.Logger) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newBackend(client.Models, modelName, logger), nil
}

func newBackend(models generator, modelName string, logger zerolog.Logger) *Backend {
	if modelName == "" {
		modelName = defaultModel
	}
	return &Backend{
		models: models,
		model:  modelName,
		logger: logger.With().Str("component", "gemini-oracle").Str("model", modelName).Logger(),
	}
}

// Identify implements oracle.ItemIdentifier.
func (b *Backend) Identify(ctx context.Context, req oracle.IdentifyRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(oracle.IdentifyPrompt(req))}
	if req.Image != nil {
		parts = append(parts, imagePart(*req.Image))
	}
	return b.generate(ctx, "identify", parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
}

// Arbitrate implements oracle.Arbiter.
func (b *Backend) Arbitrate(ctx context.Context, req oracle.ArbitrationRequest) (string, error) {
	prompt, err := oracle.ArbitrationPrompt(req, b.logger)
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	return b.generate(ctx, "arbitrate", parts, &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(oracle.ArbiterInstruction, genai.RoleUser),
	})
}

// ExtractText implements oracle.TextExtractor.
func (b *Backend) ExtractText(ctx context.Context, img oracle.Image) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(oracle.TranscribePrompt),
		imagePart(img),
	}
	text, err := b.generate(ctx, "extract", parts, nil)
	return strings.TrimSpace(text), err
}

func imagePart(img oracle.Image) *genai.Part {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return genai.NewPartFromBytes(img.Data, mimeType)
}

func (b *Backend) generate(ctx context.Context, op string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := b.models.GenerateContent(ctx, b.model, contents, cfg)
	if err != nil {
		b.logger.Error().Err(err).Str("op", op).Msg("gemini request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", model.ErrOracleUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", model.ErrOracleUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty gemini response", model.ErrOracleMalformed)
	}

	b.logger.Debug().Str("op", op).Int("content_len", len(text)).Msg("gemini request completed")
	return text, nil
}
