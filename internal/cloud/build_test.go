package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
)

func TestBuildFrequencies(t *testing.T) {
	stop := lexicon.NewSet("the", "was")
	summary := models.AnalysisSummary{
		Results: []models.ClassificationResult{
			{Comment: "The delivery was late", Keywords: []string{"delivery", "late"}},
			{Comment: "delivery fast", Keywords: []string{"delivery", "fast"}},
		},
	}

	freq := BuildFrequencies(summary, stop)

	assert.Equal(t, []models.WordCount{
		{Word: "delivery", Count: 4},
		{Word: "late", Count: 2},
		{Word: "fast", Count: 2},
	}, freq.Entries())
}

func TestBuildWordCloud(t *testing.T) {
	summary := models.AnalysisSummary{
		ID: "abc",
		Results: []models.ClassificationResult{
			{Comment: "checkout keeps crashing", Keywords: []string{"checkout", "keeps", "crashing"}},
			{Comment: "checkout is great", Keywords: []string{"checkout", "great"}},
		},
	}

	words, err := BuildWordCloud(summary, lexicon.Default().Stopwords, DefaultOptions(800, 600))
	require.NoError(t, err)
	require.NotEmpty(t, words)
	assert.Equal(t, "checkout", words[0].Text)

	_, err = BuildWordCloud(summary, lexicon.Default().Stopwords, DefaultOptions(800, -1))
	assert.ErrorIs(t, err, ErrInvalidCanvas)
}
