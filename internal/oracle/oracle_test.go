package oracle

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"recibo/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	tests := []struct {
		name         string
		input        string
		expectedType string
		expectError  bool
	}{
		{name: "Data URL", input: "data:image/png;base64," + payload, expectedType: "image/png"},
		{name: "Bare base64", input: payload, expectedType: "image/jpeg"},
		{name: "Empty", input: "  ", expectError: true},
		{name: "Not base64 encoded data URL", input: "data:image/png,abc", expectError: true},
		{name: "Missing comma", input: "data:image/png;base64", expectError: true},
		{name: "Invalid base64", input: "data:image/png;base64,@@@", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseImage(tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrCaptureUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedType, img.MIMEType)
			assert.Equal(t, []byte("jpeg-bytes"), img.Data)
		})
	}
}

func TestImage_DataURLRoundTrip(t *testing.T) {
	img := Image{MIMEType: "image/webp", Data: []byte{1, 2, 3}}

	parsed, err := ParseImage(img.DataURL())

	require.NoError(t, err)
	assert.Equal(t, img, parsed)
}

func TestFallbackExtractor(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	img := Image{Data: []byte{1}}

	ok := TextExtractorFunc(func(ctx context.Context, img Image) (string, error) {
		return "MILK 3.00", nil
	})
	failing := TextExtractorFunc(func(ctx context.Context, img Image) (string, error) {
		return "", errors.New("model not found")
	})
	empty := TextExtractorFunc(func(ctx context.Context, img Image) (string, error) {
		return "", nil
	})

	t.Run("Primary succeeds", func(t *testing.T) {
		called := false
		secondary := TextExtractorFunc(func(ctx context.Context, img Image) (string, error) {
			called = true
			return "", nil
		})

		text, err := NewFallbackExtractor(ok, secondary, logger).ExtractText(ctx, img)

		require.NoError(t, err)
		assert.Equal(t, "MILK 3.00", text)
		assert.False(t, called, "secondary should not be called when primary succeeds")
	})

	t.Run("Primary fails, secondary succeeds", func(t *testing.T) {
		text, err := NewFallbackExtractor(failing, ok, logger).ExtractText(ctx, img)

		require.NoError(t, err)
		assert.Equal(t, "MILK 3.00", text)
	})

	t.Run("Primary empty, secondary succeeds", func(t *testing.T) {
		text, err := NewFallbackExtractor(empty, ok, logger).ExtractText(ctx, img)

		require.NoError(t, err)
		assert.Equal(t, "MILK 3.00", text)
	})

	t.Run("Both fail", func(t *testing.T) {
		_, err := NewFallbackExtractor(failing, failing, logger).ExtractText(ctx, img)

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrExtractionFailed)
		assert.True(t, strings.Contains(err.Error(), "model not found"))
	})

	t.Run("Nil secondary returns primary", func(t *testing.T) {
		extractor := NewFallbackExtractor(ok, nil, logger)

		text, err := extractor.ExtractText(ctx, img)
		require.NoError(t, err)
		assert.Equal(t, "MILK 3.00", text)
	})
}

func TestMockIdentifier(t *testing.T) {
	identifier := NewMockIdentifier(20 * time.Millisecond)

	start := time.Now()
	raw, err := identifier.Identify(context.Background(), IdentifyRequest{Text: "anything"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)

	id, err := ParseIdentification(raw)
	require.NoError(t, err)
	assert.Equal(t, model.MockIdentification().Name, id.Name)
	assert.Equal(t, "5.99", id.Price.String())
	assert.Equal(t, "fa-box", id.Icon)
}

func TestMockIdentifier_ContextCancelled(t *testing.T) {
	identifier := NewMockIdentifier(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := identifier.Identify(ctx, IdentifyRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArbitrationPrompt(t *testing.T) {
	prompt, err := ArbitrationPrompt(ArbitrationRequest{
		Items: []model.Item{
			{ID: 1, Name: "Milk", Price: model.ParseMoney("3.00")},
			{ID: 2, Name: model.PlaceholderName, IsProcessing: true},
		},
		ReceiptText:  "MILK 3.00",
		StoreContext: "Corner Market",
	}, zerolog.Nop())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Corner Market")
	assert.Contains(t, prompt, `[{"name":"Milk","price":3.00}]`)
	assert.Contains(t, prompt, "MILK 3.00")
	assert.Contains(t, prompt, "do NOT report it")
	assert.NotContains(t, prompt, model.PlaceholderName)
}

func TestArbitrationPrompt_LongReceiptCutAtLineBoundary(t *testing.T) {
	line := "CRÈME FRAÎCHE 4.99\n"
	receipt := strings.Repeat(line, maxReceiptChars/len(line)+10)

	var logs strings.Builder
	prompt, err := ArbitrationPrompt(ArbitrationRequest{ReceiptText: receipt}, zerolog.New(&logs))
	require.NoError(t, err)

	start := strings.Index(prompt, "Receipt Scan Results:\n") + len("Receipt Scan Results:\n")
	end := strings.Index(prompt, "\n\nTask:")
	kept := prompt[start:end]

	assert.LessOrEqual(t, len(kept), maxReceiptChars)
	assert.True(t, utf8.ValidString(kept))
	assert.True(t, strings.HasSuffix(kept, "CRÈME FRAÎCHE 4.99"))
	assert.Contains(t, logs.String(), "receipt text truncated")
}

func TestClipReceipt(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected string
		cut      bool
	}{
		{name: "Short text kept", text: "MILK 3.00", limit: 20, expected: "MILK 3.00"},
		{name: "Cut at last newline", text: "MILK 3.00\nBREAD 2.50", limit: 15, expected: "MILK 3.00", cut: true},
		{name: "Newline exactly at limit", text: "MILK 3.00\nBREAD", limit: 9, expected: "MILK 3.00", cut: true},
		{name: "Single line cut on rune boundary", text: "ÉÉÉÉ", limit: 3, expected: "É", cut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := clipReceipt(tt.text, tt.limit)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.cut, cut)
		})
	}
}

func TestIdentifyPrompt(t *testing.T) {
	prompt := IdentifyPrompt(IdentifyRequest{Text: "ORGANIC BANANAS"})

	assert.Contains(t, prompt, "a store")
	assert.Contains(t, prompt, "ORGANIC BANANAS")
}
