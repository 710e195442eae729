// Package analysis runs sentiment classification and keyword extraction over
// a batch of comments and reduces the results into a corpus summary.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/feedbacklens/internal/ingest"
	"github.com/spacesedan/feedbacklens/internal/keywords"
	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
	"github.com/spacesedan/feedbacklens/internal/sentiment"
)

// Config selects the model, lexicons and pool size for a run.
type Config struct {
	ModelID  string
	Lexicons lexicon.Lexicons
	Workers  int
	Clock    clockwork.Clock
}

type Analyzer struct {
	model      sentiment.Model
	stopwords  lexicon.Set
	lexDigest  string
	workers    int
	aggregator *Aggregator
}

func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Lexicons.Positive == nil && cfg.Lexicons.Negative == nil {
		cfg.Lexicons = lexicon.Default()
	}

	model, err := sentiment.NewModel(cfg.ModelID, cfg.Lexicons)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Analyzer{
		model:      model,
		stopwords:  cfg.Lexicons.Stopwords,
		lexDigest:  cfg.Lexicons.Digest(),
		workers:    workers,
		aggregator: NewAggregator(clock),
	}, nil
}

func (a *Analyzer) ModelID() string {
	return a.model.ID()
}

// LexiconDigest fingerprints the lexicons this analyzer scores with.
func (a *Analyzer) LexiconDigest() string {
	return a.lexDigest
}

// Run classifies every comment of batch and aggregates the results. Results
// keep the order of batch.Comments. If ctx is cancelled the whole batch is
// abandoned and no summary is returned. A batch with no comments fails with
// ErrDivisionGuard.
func (a *Analyzer) Run(ctx context.Context, batch models.ParsedBatch) (models.AnalysisSummary, error) {
	if len(batch.Comments) == 0 {
		return models.AnalysisSummary{}, fmt.Errorf("[Analyzer] %w", ErrDivisionGuard)
	}
	start := time.Now()

	results, err := a.classifyAll(ctx, batch.Comments)
	if err != nil {
		return models.AnalysisSummary{}, fmt.Errorf("[Analyzer] batch abandoned: %w", err)
	}

	summary := a.aggregator.Aggregate(results, batch.RawCount, batch.UniqueCount, a.model.ID())

	slog.Info("[Analyzer] Batch analyzed",
		slog.String("summary_id", summary.ID),
		slog.String("model", summary.ModelID),
		slog.Int("unique_comments", summary.UniqueComments),
		slog.Float64("satisfaction_score", summary.SatisfactionScore),
		slog.Duration("elapsed", time.Since(start)))

	return summary, nil
}

// classifyAll fans comments out over the worker pool. Each comment owns the
// slot at its input index, so no reordering is needed afterwards.
func (a *Analyzer) classifyAll(ctx context.Context, comments []models.Comment) ([]models.ClassificationResult, error) {
	results := make([]models.ClassificationResult, len(comments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, c := range comments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.classify(c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) classify(c models.Comment) models.ClassificationResult {
	text := string(c)
	cls := a.model.Classify(text)
	return models.ClassificationResult{
		Comment:    c,
		Sentiment:  cls.Sentiment,
		Confidence: cls.Confidence,
		Keywords:   keywords.Extract(text, a.stopwords),
	}
}

// RunAnalysis normalizes comments, then classifies and aggregates them.
func RunAnalysis(ctx context.Context, comments []string, cfg Config) (models.AnalysisSummary, error) {
	batch, err := ingest.NormalizeLines(comments)
	if err != nil {
		return models.AnalysisSummary{}, err
	}

	analyzer, err := NewAnalyzer(cfg)
	if err != nil {
		return models.AnalysisSummary{}, err
	}

	return analyzer.Run(ctx, batch)
}
