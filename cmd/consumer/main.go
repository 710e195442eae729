package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/feedbacklens/config"
	"github.com/spacesedan/feedbacklens/internal/analysis"
	"github.com/spacesedan/feedbacklens/internal/cache"
	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/logging"
	"github.com/spacesedan/feedbacklens/internal/models"
	"github.com/spacesedan/feedbacklens/internal/monitoring"
	"github.com/spacesedan/feedbacklens/internal/store"
	"github.com/spacesedan/feedbacklens/internal/stream"
)

func main() {
	config.LoadEnv(config.AppEnv())

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("info")
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lx, err := lexicon.Load(cfg.LexiconPath)
	if err != nil {
		slog.Error("[Main] Failed to load lexicons", slog.String("error", err.Error()))
		os.Exit(1)
	}

	analyzer, err := analysis.NewAnalyzer(analysis.Config{
		ModelID:  cfg.ModelID,
		Lexicons: lx,
		Workers:  cfg.Workers,
	})
	if err != nil {
		slog.Error("[Main] Failed to create analyzer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	kafkaCfg := stream.KafkaConfig{
		Broker:          cfg.KafkaBroker,
		GroupID:         cfg.KafkaGroupID,
		CommentsTopic:   cfg.KafkaCommentsTopic,
		SummaryTopic:    cfg.KafkaSummaryTopic,
		TransactionalID: cfg.KafkaTransactionalID,
	}

	var producer *stream.Producer
	for {
		producer, err = stream.NewProducer(ctx, kafkaCfg)
		if err == nil {
			break
		}
		slog.Warn("[Main] Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer producer.Close()

	handlers := []stream.SummaryHandler{
		func(ctx context.Context, _ models.ParsedBatch, s models.AnalysisSummary) error {
			return producer.PublishSummary(ctx, s)
		},
	}

	dynamo, err := store.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		slog.Error("[Main] Failed to create DynamoDB client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clock := clockwork.NewRealClock()
	summaries := store.NewSummaryStore(dynamo,
		store.Tables{Summaries: cfg.SummaryTable, Results: cfg.ResultsTable},
		cfg.ResultTTL, clock)
	handlers = append(handlers, func(ctx context.Context, _ models.ParsedBatch, s models.AnalysisSummary) error {
		return summaries.SaveSummary(ctx, s)
	})

	storeHealthy := &atomic.Bool{}
	storeHealthy.Store(true)
	go monitoring.Monitor(ctx, clock, "dynamodb", monitoring.HealthcheckInterval, summaries.Ping, storeHealthy)
	health := []*atomic.Bool{storeHealthy}

	probes := monitoring.NewServer(cfg.MetricsAddr, clock)
	probes.Track("dynamodb", storeHealthy)
	go func() {
		if err := probes.Start(); err != nil {
			slog.Error("[Main] Metrics server failed", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = probes.Shutdown(shutdownCtx)
	}()

	if cfg.ValkeyAddress != "" {
		client, err := cache.NewValkeyClient(ctx, cache.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			slog.Error("[Main] Failed to connect to Valkey", slog.String("error", err.Error()))
			os.Exit(1)
		}
		summaryCache := cache.NewSummaryCache(client, cfg.CacheTTL)
		defer summaryCache.Close()

		cacheHealthy := &atomic.Bool{}
		cacheHealthy.Store(true)
		go monitoring.Monitor(ctx, clock, "valkey", monitoring.HealthcheckInterval, summaryCache.Ping, cacheHealthy)
		health = append(health, cacheHealthy)
		probes.Track("valkey", cacheHealthy)

		handlers = append(handlers, func(ctx context.Context, b models.ParsedBatch, s models.AnalysisSummary) error {
			return summaryCache.Set(ctx, cache.Key(s.ModelID, analyzer.LexiconDigest(), b.Comments), s)
		})
	}

	consumer, err := stream.NewConsumer(kafkaCfg)
	if err != nil {
		slog.Error("[Main] Failed to start consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer consumer.Close()

	worker := stream.NewWorker(
		stream.NewMessageIterator(ctx, consumer),
		stream.NewCommitHandler(ctx, consumer),
		analyzer,
		stream.WorkerConfig{BatchSize: cfg.BatchSize, BatchTimeout: cfg.BatchTimeout},
		handlers...,
	).WithHealthCheck(health...)

	if err := worker.Run(ctx); err != nil {
		slog.Error("[Main] Consumer stopped", slog.String("error", err.Error()))
	}
}
