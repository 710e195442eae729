package sentiment

import (
	"strings"
	"unicode"

	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
)

// LexiconModel scores comments by counting lexicon hits.
type LexiconModel struct {
	positive lexicon.Set
	negative lexicon.Set
}

func NewLexiconModel(positive, negative lexicon.Set) *LexiconModel {
	return &LexiconModel{positive: positive, negative: negative}
}

func (m *LexiconModel) ID() string { return ModelLexicon }

func (m *LexiconModel) Classify(text string) models.Classification {
	return Classify(text, m.positive, m.negative)
}

// Classify scores comment against the positive and negative lexicons.
// A token present in both sets counts toward both scores.
func Classify(comment string, positive, negative lexicon.Set) models.Classification {
	var posScore, negScore int
	for _, tok := range strings.Fields(strings.ToLower(comment)) {
		tok = stripNonAlnum(tok)
		if tok == "" {
			continue
		}
		if positive.Contains(tok) {
			posScore++
		}
		if negative.Contains(tok) {
			negScore++
		}
	}

	total := posScore + negScore
	if total == 0 {
		return models.Classification{Sentiment: models.Neutral, Confidence: neutralConfidence(comment)}
	}

	ratio := float64(posScore) / float64(total)
	switch {
	case ratio > positiveCutoff:
		return models.Classification{
			Sentiment:  models.Positive,
			Confidence: clamp01(polarBase + ratio*polarSpan),
		}
	case ratio < negativeCutoff:
		return models.Classification{
			Sentiment:  models.Negative,
			Confidence: clamp01(polarBase + (1-ratio)*polarSpan),
		}
	default:
		return models.Classification{Sentiment: models.Neutral, Confidence: neutralConfidence(comment)}
	}
}

func stripNonAlnum(tok string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, tok)
}
