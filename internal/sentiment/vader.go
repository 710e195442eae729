package sentiment

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/feedbacklens/internal/models"
)

// vaderThreshold is the compound score magnitude needed for a polar label.
const vaderThreshold = 0.20

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

type VaderModel struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderModel() *VaderModel {
	return &VaderModel{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (m *VaderModel) ID() string { return ModelVader }

func (m *VaderModel) Classify(text string) models.Classification {
	score := m.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound

	switch {
	case score >= vaderThreshold:
		return models.Classification{Sentiment: models.Positive, Confidence: clamp01(polarBase + math.Abs(score)*polarSpan)}
	case score <= -vaderThreshold:
		return models.Classification{Sentiment: models.Negative, Confidence: clamp01(polarBase + math.Abs(score)*polarSpan)}
	default:
		return models.Classification{Sentiment: models.Neutral, Confidence: neutralConfidence(text)}
	}
}

// RemoveLinks keeps the text of markdown links and drops bare URLs.
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and flattens it to single-spaced
// plain text without links.
func ConvertMarkdownToText(input string) string {
	input = RemoveLinks(input)
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(htmlTagPattern.ReplaceAllString(string(output), " "))
	return strings.Join(strings.Fields(plain), " ")
}
