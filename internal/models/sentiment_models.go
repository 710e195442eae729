package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type SentimentLabel int

const (
	Neutral SentimentLabel = iota
	Positive
	Negative
)

var labelNames = map[SentimentLabel]string{
	Positive: "positive",
	Negative: "negative",
	Neutral:  "neutral",
}

func (l SentimentLabel) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("SentimentLabel(%d)", int(l))
}

// ParseSentimentLabel maps a lowercase label name back to its value.
func ParseSentimentLabel(s string) (SentimentLabel, error) {
	for l, name := range labelNames {
		if name == s {
			return l, nil
		}
	}
	return Neutral, fmt.Errorf("unknown sentiment label: %q", s)
}

func (l SentimentLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *SentimentLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseSentimentLabel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Classification is the output of a sentiment model for one comment.
type Classification struct {
	Sentiment  SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
}

type ClassificationResult struct {
	Comment    Comment        `json:"comment"`
	Sentiment  SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
	Keywords   []string       `json:"keywords"`
}

type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func (c SentimentCounts) Total() int {
	return c.Positive + c.Negative + c.Neutral
}

type AnalysisSummary struct {
	ID                string                 `json:"id"`
	Results           []ClassificationResult `json:"results"`
	TotalComments     int                    `json:"total_comments"`
	UniqueComments    int                    `json:"unique_comments"`
	DuplicatesIgnored int                    `json:"duplicates_ignored"`
	SentimentCounts   SentimentCounts        `json:"sentiment_counts"`
	SatisfactionScore float64                `json:"satisfaction_score"`
	AverageConfidence float64                `json:"average_confidence"`
	ModelID           string                 `json:"model_id"`
	Timestamp         time.Time              `json:"timestamp"`
}

// Degenerate reports whether the summary was aggregated over an empty corpus,
// in which case the scores are defined as zero.
func (s AnalysisSummary) Degenerate() bool {
	return s.UniqueComments == 0
}
