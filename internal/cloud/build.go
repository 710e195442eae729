package cloud

import (
	"log/slog"

	"github.com/spacesedan/feedbacklens/internal/keywords"
	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
)

// BuildFrequencies merges the content tokens of every analysed comment with
// its extracted keywords. Keywords count once more on top of their raw
// occurrences, so words that lead a comment weigh more in the cloud.
func BuildFrequencies(summary models.AnalysisSummary, stopwords lexicon.Set) *models.WordFrequency {
	freq := models.NewWordFrequency()
	for _, r := range summary.Results {
		for _, tok := range keywords.Tokens(string(r.Comment), stopwords) {
			freq.Add(tok, 1)
		}
		for _, kw := range r.Keywords {
			freq.Add(kw, 1)
		}
	}
	return freq
}

// BuildWordCloud lays out the word frequencies of summary.
func BuildWordCloud(summary models.AnalysisSummary, stopwords lexicon.Set, opts Options) ([]models.PlacedWord, error) {
	freq := BuildFrequencies(summary, stopwords)

	words, err := Layout(freq, opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("[Cloud] Word cloud built",
		slog.String("summary_id", summary.ID),
		slog.Int("distinct_words", freq.Len()),
		slog.Int("placed", len(words)))

	return words, nil
}
