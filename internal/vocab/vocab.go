// Package vocab holds the word lists the name matcher uses to decide which
// tokens of a product name are brand or size qualifiers ("organic", "12oz",
// "kirkland") and can be ignored when comparing a cart item to a receipt line.
package vocab

import "context"

// WordSet is a read-only set of lower-cased words.
type WordSet interface {
	// Contains reports whether word is in the set. Lookups are case-insensitive.
	Contains(word string) bool

	// Size returns the number of words in the set.
	Size() int
}

// Loader reads a word list.
type Loader interface {
	// Load reads a gzipped list with one word per line.
	Load(ctx context.Context, path string) (WordSet, error)
}
