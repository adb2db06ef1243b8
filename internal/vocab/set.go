package vocab

import "strings"

type mapWordSet struct {
	words map[string]struct{}
}

// NewWordSet creates a set holding words.
func NewWordSet(words ...string) WordSet {
	s := &mapWordSet{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.add(w)
	}
	return s
}

func (s *mapWordSet) Contains(word string) bool {
	_, ok := s.words[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

func (s *mapWordSet) Size() int {
	return len(s.words)
}

func (s *mapWordSet) add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || strings.HasPrefix(word, "#") {
		return
	}
	s.words[word] = struct{}{}
}

// union merges sets into a new one.
func union(sets ...WordSet) WordSet {
	out := &mapWordSet{words: make(map[string]struct{})}
	for _, set := range sets {
		if m, ok := set.(*mapWordSet); ok {
			for w := range m.words {
				out.words[w] = struct{}{}
			}
		}
	}
	return out
}
