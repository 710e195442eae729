// Package lexicon holds the word sets that drive sentiment scoring and keyword
// filtering. Sets are plain values injected into every call; nothing in this
// module reads them from package state.
package lexicon

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyLexicon = errors.New("lexicon: positive and negative sets must not be empty")

// Set is an immutable set of lowercase words.
type Set map[string]struct{}

// NewSet builds a Set from words, lowercasing and trimming each entry.
// Blank entries are dropped.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		s[w] = struct{}{}
	}
	return s
}

func (s Set) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the words of s in ascending order.
func (s Set) Sorted() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// Lexicons bundles the three word sets an analysis run needs.
type Lexicons struct {
	Positive  Set
	Negative  Set
	Stopwords Set
}

// Default returns the built-in English lexicons.
func Default() Lexicons {
	return Lexicons{
		Positive:  NewSet(defaultPositive...),
		Negative:  NewSet(defaultNegative...),
		Stopwords: NewSet(defaultStopwords...),
	}
}

// Digest fingerprints the three sets. Lexicons with the same words give the
// same digest regardless of how they were loaded.
func (lx Lexicons) Digest() string {
	h := sha256.New()
	for i, set := range []Set{lx.Positive, lx.Negative, lx.Stopwords} {
		fmt.Fprintf(h, "%d:", i)
		for _, w := range set.Sorted() {
			h.Write([]byte(w))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

type fileFormat struct {
	Positive  []string `yaml:"positive"`
	Negative  []string `yaml:"negative"`
	Stopwords []string `yaml:"stopwords"`
}

// LoadFile reads lexicons from a YAML file with positive, negative and
// stopwords lists. A missing stopwords list falls back to the defaults.
func LoadFile(path string) (Lexicons, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicons{}, fmt.Errorf("[Lexicon] failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes the YAML lexicon format.
func Parse(data []byte) (Lexicons, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Lexicons{}, fmt.Errorf("[Lexicon] failed to parse yaml: %w", err)
	}

	lx := Lexicons{
		Positive:  NewSet(f.Positive...),
		Negative:  NewSet(f.Negative...),
		Stopwords: NewSet(f.Stopwords...),
	}
	if lx.Positive.Len() == 0 || lx.Negative.Len() == 0 {
		return Lexicons{}, ErrEmptyLexicon
	}
	if lx.Stopwords.Len() == 0 {
		lx.Stopwords = NewSet(defaultStopwords...)
	}

	for w := range lx.Positive {
		if lx.Negative.Contains(w) {
			slog.Warn("[Lexicon] Word tagged both positive and negative",
				slog.String("word", w))
		}
	}

	return lx, nil
}

// Load returns the lexicons at path, or the defaults when path is empty.
func Load(path string) (Lexicons, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
