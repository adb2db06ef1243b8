package vocab

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultQualifiers is used when no word list files are configured.
var DefaultQualifiers = []string{
	// quality and origin
	"organic", "fresh", "natural", "premium", "select", "choice", "original",
	"classic", "farm", "local", "wild", "free", "range", "grass", "fed", "org",
	// size and packaging
	"large", "small", "medium", "mini", "jumbo", "family", "size", "value",
	"pack", "bag", "box", "bottle", "can", "jar", "carton", "tub", "loaf",
	"bunch", "each", "ea", "ct", "pk", "dozen",
	// units
	"oz", "lb", "lbs", "kg", "g", "gr", "ml", "l", "ltr", "gal", "qt", "pt",
	// diet
	"lowfat", "nonfat", "skim", "reduced", "fat", "low", "lite", "light",
	"whole", "plain", "unsweetened", "sugar",
	// house brands
	"kirkland", "signature", "365", "great", "kroger", "trader", "joes",
	"market", "pantry", "essentials", "store", "brand",
}

// Lexicon turns product names into canonical keys for matching.
type Lexicon struct {
	qualifiers WordSet
}

// NewLexicon loads every word list in paths concurrently and merges them.
// With no paths the built-in qualifier list is used.
func NewLexicon(ctx context.Context, paths []string, loader Loader, logger zerolog.Logger) (*Lexicon, error) {
	logger = logger.With().Str("component", "lexicon").Logger()

	if len(paths) == 0 {
		logger.Info().Int("qualifiers", len(DefaultQualifiers)).Msg("using built-in qualifier list")
		return DefaultLexicon(), nil
	}

	sets := make([]WordSet, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			set, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load word list %s: %w", path, err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to initialise lexicon")
		return nil, err
	}

	merged := union(sets...)
	logger.Info().
		Int("file_count", len(paths)).
		Int("qualifiers", merged.Size()).
		Msg("lexicon initialised")

	return &Lexicon{qualifiers: merged}, nil
}

// DefaultLexicon returns a lexicon backed by DefaultQualifiers.
func DefaultLexicon() *Lexicon {
	return &Lexicon{qualifiers: NewWordSet(DefaultQualifiers...)}
}

// Size returns the number of known qualifiers.
func (l *Lexicon) Size() int {
	return l.qualifiers.Size()
}

// IsQualifier reports whether word carries no identity of its own.
func (l *Lexicon) IsQualifier(word string) bool {
	return l.qualifiers.Contains(word)
}

// Tokens splits name into lower-case singular tokens with qualifiers and
// quantity tokens (anything containing a digit) removed. When every token
// is a qualifier the unfiltered tokens are returned so a name never
// canonicalises to nothing.
func (l *Lexicon) Tokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	all := make([]string, 0, len(fields))
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		word := Singular(f)
		all = append(all, word)
		if l.IsQualifier(f) || l.IsQualifier(word) || strings.IndexFunc(f, unicode.IsDigit) >= 0 {
			continue
		}
		kept = append(kept, word)
	}

	if len(kept) == 0 {
		return all
	}
	return kept
}

// Canonical returns the matching key of name.
func (l *Lexicon) Canonical(name string) string {
	return strings.Join(l.Tokens(name), " ")
}

// Singular strips common English plural endings.
func Singular(word string) string {
	switch {
	case len(word) <= 3:
		return word
	case strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "oes"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}
