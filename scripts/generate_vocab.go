package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Writes sample qualifier word lists for the lexicon. Point VOCAB_FILES at
// the generated files (comma separated) to replace the built-in list.
//
// Lines starting with # are comments in the word list format.
func main() {
	dataDir := "data/vocab"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	lists := map[string][]string{
		"units.gz": {
			"# weights, volumes and counts",
			"oz", "lb", "lbs", "kg", "g", "gr", "ml", "l", "ltr", "gal", "qt", "pt",
			"ct", "pk", "ea", "each", "dozen",
		},
		"packaging.gz": {
			"# containers and sizes",
			"pack", "bag", "box", "bottle", "can", "jar", "carton", "tub", "loaf",
			"bunch", "large", "small", "medium", "mini", "jumbo", "family", "size", "value",
		},
		"descriptors.gz": {
			"# quality, origin and diet",
			"organic", "org", "fresh", "natural", "premium", "select", "choice",
			"original", "classic", "farm", "local", "wild", "free", "range", "grass", "fed",
			"lowfat", "nonfat", "skim", "reduced", "fat", "low", "lite", "light",
			"whole", "plain", "unsweetened", "sugar",
		},
		"house_brands.gz": {
			"# store brands that never identify a product",
			"kirkland", "signature", "365", "great", "value", "kroger", "trader", "joes",
			"market", "pantry", "essentials", "store", "brand",
		},
	}

	var paths []string
	for filename, words := range lists {
		filePath := filepath.Join(dataDir, filename)

		if err := createWordList(filePath, words); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		paths = append(paths, filePath)
		fmt.Printf("Created %s with %d lines\n", filePath, len(words))
	}

	fmt.Println("\nSample word lists created successfully!")
	fmt.Printf("\nVOCAB_FILES=%s\n", strings.Join(paths, ","))
}

func createWordList(filePath string, words []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, word := range words {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", word); err != nil {
			return fmt.Errorf("failed to write word: %w", err)
		}
	}

	return nil
}
