package ocr

import (
	"context"
	"errors"
	"testing"

	"recibo/internal/model"
	"recibo/internal/oracle"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotStdin []byte
	gotName  string
	gotArgs  []string
}

func (f *fakeRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	f.gotStdin = stdin
	f.gotName = name
	f.gotArgs = args
	return f.stdout, f.stderr, f.err
}

func TestTesseract_ExtractText(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("MILK   3.00  \r\n\n\n\nBREAD 2.50\f")}
	extractor := NewTesseract(Config{Language: "deu", PSM: 6}, runner, zerolog.Nop())

	text, err := extractor.ExtractText(context.Background(), oracle.Image{Data: []byte("jpeg")})

	require.NoError(t, err)
	assert.Equal(t, "MILK   3.00\n\nBREAD 2.50", text)
	assert.Equal(t, "tesseract", runner.gotName)
	assert.Equal(t, []string{"stdin", "stdout", "-l", "deu", "--psm", "6"}, runner.gotArgs)
	assert.Equal(t, []byte("jpeg"), runner.gotStdin)
}

func TestTesseract_Failure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: []byte("Error in pixReadStream")}
	extractor := NewTesseract(Config{Binary: "/usr/bin/tesseract"}, runner, zerolog.Nop())

	_, err := extractor.ExtractText(context.Background(), oracle.Image{Data: []byte("x")})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "pixReadStream")
	assert.Equal(t, "/usr/bin/tesseract", runner.gotName)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Box noise", input: "||||\nEGGS 4.20\n_____", expected: "EGGS 4.20"},
		{name: "Blank runs", input: "A\n\n\n\n\nB", expected: "A\n\nB"},
		{name: "Empty", input: " \n\f ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}
