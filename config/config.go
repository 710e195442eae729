package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go-simpler.org/env"

	"github.com/spacesedan/feedbacklens/internal/cloud"
	"github.com/spacesedan/feedbacklens/internal/sentiment"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"dev"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	MetricsAddr string `env:"METRICS_ADDR" default:":9090"`

	ModelID     string `env:"SENTIMENT_MODEL" default:"lexicon"`
	LexiconPath string `env:"LEXICON_PATH"`
	Workers     int    `env:"ANALYSIS_WORKERS" default:"0"`

	CanvasWidth  int     `env:"CLOUD_WIDTH" default:"1024"`
	CanvasHeight int     `env:"CLOUD_HEIGHT" default:"768"`
	MaxWords     int     `env:"CLOUD_MAX_WORDS" default:"100"`
	RotateRatio  float64 `env:"CLOUD_ROTATE_RATIO" default:"0.25"`
	ShrinkToFit  bool    `env:"CLOUD_SHRINK_TO_FIT" default:"false"`
	CloudSeed    uint64  `env:"CLOUD_SEED" default:"0"`

	KafkaBroker          string        `env:"KAFKA_BROKER" default:"localhost:29092"`
	KafkaGroupID         string        `env:"KAFKA_CONSUMER_GROUP_ID" default:"feedbacklens-consumer-group"`
	KafkaCommentsTopic   string        `env:"KAFKA_COMMENTS_TOPIC" default:"comments"`
	KafkaSummaryTopic    string        `env:"KAFKA_SUMMARY_TOPIC" default:"analysis-summaries"`
	KafkaTransactionalID string        `env:"KAFKA_TRANSACTIONAL_ID" default:"feedbacklens-producer-1"`
	BatchSize            int           `env:"BATCH_SIZE" default:"50"`
	BatchTimeout         time.Duration `env:"BATCH_TIMEOUT" default:"5s"`

	AWSRegion    string        `env:"AWS_REGION" default:"us-west-2"`
	AWSEndpoint  string        `env:"AWS_ENDPOINT"`
	SummaryTable string        `env:"SUMMARY_TABLE_NAME" default:"AnalysisSummaries"`
	ResultsTable string        `env:"RESULTS_TABLE_NAME" default:"CommentResults"`
	ResultTTL    time.Duration `env:"RESULT_TTL" default:"720h"`

	ValkeyAddress  string        `env:"VALKEY_INIT_ADDRESS"`
	ValkeyPassword string        `env:"VALKEY_PASSWORD"`
	ValkeyTLS      bool          `env:"VALKEY_TLS" default:"false"`
	CacheTTL       time.Duration `env:"CACHE_TTL" default:"24h"`
}

// Load reads the configuration from the environment. Call LoadEnv first to
// pull in the .env file for the current APP_ENV.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		return fmt.Errorf("CLOUD_WIDTH and CLOUD_HEIGHT must be positive: %w", cloud.ErrInvalidCanvas)
	}
	if cfg.ModelID != sentiment.ModelLexicon && cfg.ModelID != sentiment.ModelVader {
		return fmt.Errorf("SENTIMENT_MODEL %q: %w", cfg.ModelID, sentiment.ErrUnknownModel)
	}
	if cfg.RotateRatio < 0 || cfg.RotateRatio > 1 {
		return errors.New("CLOUD_ROTATE_RATIO must be between 0 and 1")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	if cfg.LexiconPath != "" {
		if _, err := os.Stat(cfg.LexiconPath); err != nil {
			return fmt.Errorf("LEXICON_PATH: %w", err)
		}
	}
	return nil
}

// CloudOptions converts the word-cloud settings into layout options.
func (c *Config) CloudOptions() cloud.Options {
	opts := cloud.DefaultOptions(c.CanvasWidth, c.CanvasHeight)
	opts.MaxWords = c.MaxWords
	opts.RotateRatio = c.RotateRatio
	opts.Seed = c.CloudSeed
	if c.ShrinkToFit {
		opts.Overflow = cloud.OverflowShrink
	}
	return opts
}

// AppEnv returns APP_ENV, defaulting to dev.
func AppEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return env
}
