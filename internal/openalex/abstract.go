package openalex

import (
	"sort"
	"strings"
)

// ReconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the list of positions at
// which it appears; flattening to (word, position) pairs and sorting by
// position recovers the original order. Ties in position do not occur in a
// well-formed index; the word tie-break keeps output deterministic anyway.
func ReconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
