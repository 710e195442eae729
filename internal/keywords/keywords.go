// Package keywords picks the most frequent content words of a single comment.
package keywords

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/feedbacklens/internal/lexicon"
)

const (
	MaxKeywords = 5
	// minTokenRunes is exclusive: tokens of two runes or fewer are dropped.
	minTokenRunes = 2
)

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Tokens returns the lowercase content tokens of comment in order of
// appearance, without stopwords and short tokens.
func Tokens(comment string, stopwords lexicon.Set) []string {
	clean := nonWordPattern.ReplaceAllString(strings.ToLower(comment), " ")
	fields := strings.Fields(clean)

	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) <= minTokenRunes {
			continue
		}
		if stopwords.Contains(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Extract returns up to five keywords of comment ranked by frequency, ties
// broken by first occurrence.
func Extract(comment string, stopwords lexicon.Set) []string {
	tokens := Tokens(comment, stopwords)
	if len(tokens) == 0 {
		return []string{}
	}

	type candidate struct {
		word  string
		count int
	}

	index := make(map[string]int, len(tokens))
	candidates := make([]candidate, 0, len(tokens))
	for _, tok := range tokens {
		if i, ok := index[tok]; ok {
			candidates[i].count++
			continue
		}
		index[tok] = len(candidates)
		candidates = append(candidates, candidate{word: tok, count: 1})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return b.count - a.count
	})

	if len(candidates) > MaxKeywords {
		candidates = candidates[:MaxKeywords]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out
}
