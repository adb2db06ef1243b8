package vocab

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader reads gzipped word lists from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based word list loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "vocab-loader").Logger(),
	}
}

// Load implements Loader.
func (l *fileLoader) Load(ctx context.Context, path string) (WordSet, error) {
	l.logger.Info().Str("file", path).Msg("loading word list")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open word list")
		return nil, fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer file.Close()

	set, err := readWords(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read word list")
		return nil, fmt.Errorf("failed to read word list %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("words_loaded", set.Size()).
		Msg("word list loaded")

	return set, nil
}

// readWords decompresses r and collects one word per line. Blank lines and
// lines starting with '#' are skipped.
func readWords(ctx context.Context, r io.Reader) (WordSet, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	set := &mapWordSet{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		if lines%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		set.add(scanner.Text())
		lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return set, nil
}
