// Package sentiment classifies comments as positive, negative or neutral.
//
// Two models are available. The lexicon model counts hits against injected
// positive and negative word sets and is fully deterministic. The vader model
// scores markdown-stripped text with VADER and maps the compound score onto
// the same labels and confidence ranges.
//
// Models are safe for concurrent use.
package sentiment

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
)

const (
	ModelLexicon = "lexicon"
	ModelVader   = "vader"
)

const (
	neutralBase    = 0.6
	neutralJitter  = 0.2
	polarBase      = 0.7
	polarSpan      = 0.3
	jitterBuckets  = 1 << 16
	positiveCutoff = 0.6
	negativeCutoff = 0.4
)

var ErrUnknownModel = errors.New("unknown sentiment model")

// Model classifies a single comment.
type Model interface {
	ID() string
	Classify(text string) models.Classification
}

// NewModel returns the model registered under id.
func NewModel(id string, lx lexicon.Lexicons) (Model, error) {
	switch id {
	case "", ModelLexicon:
		return NewLexiconModel(lx.Positive, lx.Negative), nil
	case ModelVader:
		return NewVaderModel(), nil
	default:
		return nil, fmt.Errorf("[Sentiment] %w: %q", ErrUnknownModel, id)
	}
}

// neutralConfidence returns 0.6 plus a jitter in [0, 0.2) derived from the
// lowercased text, so identical comments always score identically.
func neutralConfidence(text string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(text)))
	bucket := h.Sum64() % jitterBuckets
	return neutralBase + neutralJitter*float64(bucket)/jitterBuckets
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
