package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"recibo/internal/model"
)

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// ExtractStructured locates the JSON object inside a model answer. It tries,
// in order: fenced code blocks, the outermost pair of braces, and the trimmed
// answer as a whole. The first candidate that is a valid JSON object wins.
func ExtractStructured(raw string) ([]byte, error) {
	var candidates []string

	for _, m := range fencedBlock.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, m[1])
	}

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	candidates = append(candidates, raw)

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if strings.HasPrefix(c, "{") && json.Valid([]byte(c)) {
			return []byte(c), nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON object in %d bytes of output", model.ErrOracleMalformed, len(raw))
}
