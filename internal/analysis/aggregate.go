package analysis

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/feedbacklens/internal/models"
)

// ErrDivisionGuard is returned by Analyzer.Run for a batch with no comments.
// Aggregate itself never fails; it defines the scores of an empty corpus as
// zero and AnalysisSummary.Degenerate reports the case.
var ErrDivisionGuard = errors.New("aggregate over zero unique comments")

// Aggregator reduces classification results into an AnalysisSummary.
type Aggregator struct {
	clock clockwork.Clock
	newID func() string
}

func NewAggregator(clock clockwork.Clock) *Aggregator {
	return &Aggregator{
		clock: clock,
		newID: func() string { return uuid.NewString() },
	}
}

// Aggregate uses the real clock.
func Aggregate(results []models.ClassificationResult, totalRaw, totalUnique int, modelID string) models.AnalysisSummary {
	return NewAggregator(clockwork.NewRealClock()).Aggregate(results, totalRaw, totalUnique, modelID)
}

// Aggregate computes sentiment counts, the satisfaction score and the average
// confidence. The results slice is copied, never modified.
func (a *Aggregator) Aggregate(results []models.ClassificationResult, totalRaw, totalUnique int, modelID string) models.AnalysisSummary {
	counts := CountSentiments(results)

	return models.AnalysisSummary{
		ID:                a.newID(),
		Results:           append([]models.ClassificationResult(nil), results...),
		TotalComments:     totalRaw,
		UniqueComments:    totalUnique,
		DuplicatesIgnored: totalRaw - totalUnique,
		SentimentCounts:   counts,
		SatisfactionScore: SatisfactionScore(counts, totalUnique),
		AverageConfidence: AverageConfidence(results),
		ModelID:           modelID,
		Timestamp:         a.clock.Now().UTC(),
	}
}

func CountSentiments(results []models.ClassificationResult) models.SentimentCounts {
	var c models.SentimentCounts
	for _, r := range results {
		switch r.Sentiment {
		case models.Positive:
			c.Positive++
		case models.Negative:
			c.Negative++
		default:
			c.Neutral++
		}
	}
	return c
}

// SatisfactionScore weights positive comments fully and neutral ones at
// half, as a percentage of unique comments rounded to one decimal.
func SatisfactionScore(c models.SentimentCounts, uniqueCount int) float64 {
	if uniqueCount <= 0 {
		return 0
	}
	raw := (float64(c.Positive) + 0.5*float64(c.Neutral)) / float64(uniqueCount) * 100
	return math.Min(100, math.Max(0, round1(raw)))
}

func AverageConfidence(results []models.ClassificationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
