// Package chat implements the oracle contracts against any provider that
// speaks the OpenAI chat-completions protocol (DeepSeek, OpenAI, local
// gateways).
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recibo/internal/model"
	"recibo/internal/oracle"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	OCRModel    string
	ChatModel   string
	Timeout     time.Duration
}

// Client talks to a chat-completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new chat client. Empty fields take provider defaults.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "deepseek-vl"
	}
	if cfg.OCRModel == "" {
		cfg.OCRModel = "deepseek-ocr"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "deepseek-chat"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "chat-oracle").Logger(),
	}
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Identify implements oracle.ItemIdentifier. Requests carrying an image go to
// the vision model, text-only requests to the chat model.
func (c *Client) Identify(ctx context.Context, req oracle.IdentifyRequest) (string, error) {
	prompt := oracle.IdentifyPrompt(req)

	if req.Image != nil {
		return c.complete(ctx, "identify", completionRequest{
			Model:     c.cfg.VisionModel,
			Messages:  []message{visionMessage(prompt, *req.Image)},
			MaxTokens: 150,
		})
	}

	return c.complete(ctx, "identify", completionRequest{
		Model:          c.cfg.ChatModel,
		Messages:       []message{{Role: "user", Content: prompt}},
		MaxTokens:      150,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
}

// Arbitrate implements oracle.Arbiter.
func (c *Client) Arbitrate(ctx context.Context, req oracle.ArbitrationRequest) (string, error) {
	prompt, err := oracle.ArbitrationPrompt(req, c.logger)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, "arbitrate", completionRequest{
		Model: c.cfg.ChatModel,
		Messages: []message{
			{Role: "system", Content: oracle.ArbiterInstruction},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
}

// Extractor returns a TextExtractor that transcribes receipts with the given
// model and instruction.
func (c *Client) Extractor(modelName, prompt string) oracle.TextExtractor {
	return oracle.TextExtractorFunc(func(ctx context.Context, img oracle.Image) (string, error) {
		text, err := c.complete(ctx, "extract", completionRequest{
			Model:     modelName,
			Messages:  []message{visionMessage(prompt, img)},
			MaxTokens: 1000,
		})
		return strings.TrimSpace(text), err
	})
}

// OCRExtractor transcribes with the dedicated OCR model, falling back to the
// vision model with a plain reading instruction.
func (c *Client) OCRExtractor() oracle.TextExtractor {
	return oracle.NewFallbackExtractor(
		c.Extractor(c.cfg.OCRModel, oracle.TranscribePrompt),
		c.Extractor(c.cfg.VisionModel, oracle.ReadReceiptPrompt),
		c.logger,
	)
}

func visionMessage(prompt string, img oracle.Image) message {
	return message{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}},
		},
	}
}

func (c *Client) complete(ctx context.Context, op string, body completionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := c.logger.With().Str("req_id", rid).Str("op", op).Str("model", body.Model).Logger()

	log.Debug().Msg("oracle request started")

	raw, err := c.post(ctx, body)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("oracle request failed")
		return "", err
	}

	var resp completionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Error().Err(err).Int("raw_bytes", len(raw)).Msg("failed to decode oracle response")
		return "", fmt.Errorf("%w: decode response: %v", model.ErrOracleMalformed, err)
	}
	if len(resp.Choices) == 0 {
		log.Error().Int("raw_bytes", len(raw)).Msg("oracle response has no choices")
		return "", fmt.Errorf("%w: no choices in response", model.ErrOracleMalformed)
	}

	content := resp.Choices[0].Message.Content
	log.Debug().
		Int("content_len", len(content)).
		Dur("elapsed", time.Since(start)).
		Msg("oracle request completed")

	return content, nil
}

func (c *Client) post(ctx context.Context, body completionRequest) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", model.ErrOracleUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrOracleUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close oracle response body")
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", model.ErrOracleUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", model.ErrOracleUnavailable, resp.StatusCode, truncate(string(data), 512))
	}

	return data, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
