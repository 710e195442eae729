package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/feedbacklens/config"
	"github.com/spacesedan/feedbacklens/internal/analysis"
	"github.com/spacesedan/feedbacklens/internal/cache"
	"github.com/spacesedan/feedbacklens/internal/cloud"
	"github.com/spacesedan/feedbacklens/internal/ingest"
	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
	"github.com/spacesedan/feedbacklens/internal/store"
)

type options struct {
	ModelID     string
	LexiconPath string
	Workers     int
	Cloud       cloud.Options
	Shrink      bool
	NoCloud     bool
	Persist     bool
	UseCache    bool

	// set when Persist or UseCache is on
	summaries *store.SummaryStore
	cache     *cache.SummaryCache
	cfg       *config.Config
}

func optionsFromConfig(cfg *config.Config) *options {
	return &options{
		ModelID:     cfg.ModelID,
		LexiconPath: cfg.LexiconPath,
		Workers:     cfg.Workers,
		Cloud:       cfg.CloudOptions(),
		Shrink:      cfg.ShrinkToFit,
		cfg:         cfg,
	}
}

type report struct {
	Summary               models.AnalysisSummary `json:"summary"`
	WordCloud             []models.PlacedWord    `json:"word_cloud,omitempty"`
	SingleTokenWarning    bool                   `json:"single_token_warning"`
	SingleTokenPercentage float64                `json:"single_token_percentage"`
	Cached                bool                   `json:"cached"`
}

func run(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	batch, err := ingest.Normalize(string(raw))
	if err != nil {
		return err
	}
	if batch.SingleTokenWarning {
		slog.Warn("[Analyze] Many comments are a single word; results may be unreliable",
			slog.Float64("single_token_percentage", batch.SingleTokenPercentage))
	}

	lx, err := lexicon.Load(opts.LexiconPath)
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(analysis.Config{
		ModelID:  opts.ModelID,
		Lexicons: lx,
		Workers:  opts.Workers,
	})
	if err != nil {
		return err
	}

	if err := opts.connect(ctx); err != nil {
		return err
	}

	rep := report{
		SingleTokenWarning:    batch.SingleTokenWarning,
		SingleTokenPercentage: batch.SingleTokenPercentage,
	}

	cacheKey := cache.Key(analyzer.ModelID(), analyzer.LexiconDigest(), batch.Comments)
	if opts.cache != nil {
		summary, hit, err := opts.cache.Get(ctx, cacheKey)
		if err != nil {
			slog.Warn("[Analyze] Cache lookup failed", slog.String("error", err.Error()))
		}
		rep.Summary, rep.Cached = summary, hit
	}

	if !rep.Cached {
		rep.Summary, err = analyzer.Run(ctx, batch)
		if err != nil {
			return err
		}
		if opts.cache != nil {
			if err := opts.cache.Set(ctx, cacheKey, rep.Summary); err != nil {
				slog.Warn("[Analyze] Failed to cache summary", slog.String("error", err.Error()))
			}
		}
		if opts.summaries != nil {
			if err := opts.summaries.SaveSummary(ctx, rep.Summary); err != nil {
				return err
			}
		}
	}

	if !opts.NoCloud {
		cloudOpts := opts.Cloud
		if opts.Shrink {
			cloudOpts.Overflow = cloud.OverflowShrink
		}
		rep.WordCloud, err = cloud.BuildWordCloud(rep.Summary, lx.Stopwords, cloudOpts)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func (o *options) connect(ctx context.Context) error {
	if o.Persist && o.summaries == nil {
		client, err := store.NewDynamoDBClient(ctx, o.cfg.AWSRegion, o.cfg.AWSEndpoint)
		if err != nil {
			return err
		}
		o.summaries = store.NewSummaryStore(client,
			store.Tables{Summaries: o.cfg.SummaryTable, Results: o.cfg.ResultsTable},
			o.cfg.ResultTTL, clockwork.NewRealClock())
	}

	if o.UseCache && o.cache == nil {
		client, err := cache.NewValkeyClient(ctx, cache.ValkeyOptions{
			Address:  o.cfg.ValkeyAddress,
			Password: o.cfg.ValkeyPassword,
			TLS:      o.cfg.ValkeyTLS,
		})
		if err != nil {
			return err
		}
		o.cache = cache.NewSummaryCache(client, o.cfg.CacheTTL)
	}
	return nil
}
