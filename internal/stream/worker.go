package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/feedbacklens/internal/analysis"
	"github.com/spacesedan/feedbacklens/internal/ingest"
	"github.com/spacesedan/feedbacklens/internal/metrics"
	"github.com/spacesedan/feedbacklens/internal/models"
	"github.com/spacesedan/feedbacklens/internal/monitoring"
)

// SummaryHandler receives every summary the worker produces, together with
// the normalized batch it was computed from.
type SummaryHandler func(ctx context.Context, batch models.ParsedBatch, summary models.AnalysisSummary) error

type pendingComment struct {
	msg     *kafka.Message
	comment models.CommentMessage
}

type WorkerConfig struct {
	BatchSize    int
	BatchTimeout time.Duration
}

// Worker reads single-comment messages, analyzes them in batches and commits
// the offsets once every handler has seen the summary.
type Worker struct {
	iterator  *MessageIterator
	committer *CommitHandler
	analyzer  *analysis.Analyzer
	handlers  []SummaryHandler
	buffer    *BatchBuffer[pendingComment]
	timeout   time.Duration
	health    []*atomic.Bool
}

func NewWorker(iterator *MessageIterator, committer *CommitHandler, analyzer *analysis.Analyzer, cfg WorkerConfig, handlers ...SummaryHandler) *Worker {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	return &Worker{
		iterator:  iterator,
		committer: committer,
		analyzer:  analyzer,
		handlers:  handlers,
		buffer:    NewBatchBuffer[pendingComment](cfg.BatchSize),
		timeout:   cfg.BatchTimeout,
	}
}

// WithHealthCheck pauses reading while any of health is false.
func (w *Worker) WithHealthCheck(health ...*atomic.Bool) *Worker {
	w.health = append(w.health, health...)
	return w
}

// Run consumes until ctx is cancelled or the iterator fails. Whatever is
// buffered at shutdown is flushed before returning.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("[CommentWorker] Listening for comments")

	ticker := time.NewTicker(w.timeout)
	defer ticker.Stop()

	paused := false
	for {
		select {
		case <-ctx.Done():
			slog.Warn("[CommentWorker] Stopping Consumer...")
			w.flushOnShutdown(ctx)
			return nil
		case <-ticker.C:
			if err := w.flush(ctx); err != nil {
				slog.Error("[CommentWorker] Batch failed", slog.String("error", err.Error()))
			}
		default:
			if !monitoring.AllHealthy(w.health...) {
				if !paused {
					slog.Warn("[CommentWorker] Downstream unhealthy, pausing consumption")
					paused = true
				}
				time.Sleep(pollTimeout)
				continue
			}
			if paused {
				slog.Info("[CommentWorker] Downstream healthy, resuming consumption")
				paused = false
			}

			msg, err := w.iterator.Next()
			if err != nil {
				w.flushOnShutdown(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("[CommentWorker] consumer error: %w", err)
			}
			if msg == nil {
				continue
			}

			w.buffer.Add(decodeComment(msg))

			if w.buffer.Full() {
				if err := w.flush(ctx); err != nil {
					slog.Error("[CommentWorker] Batch failed", slog.String("error", err.Error()))
				}
			}
		}
	}
}

func (w *Worker) flushOnShutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := w.flush(shutdownCtx); err != nil {
		slog.Error("[CommentWorker] Final batch failed", slog.String("error", err.Error()))
	}
}

// decodeComment keeps undecodable messages as empty comments so their
// offsets are still committed with the batch; normalization drops them.
func decodeComment(msg *kafka.Message) pendingComment {
	var c models.CommentMessage
	if err := json.Unmarshal(msg.Value, &c); err != nil {
		slog.Warn("[CommentWorker] Skipping undecodable message",
			slog.String("error", err.Error()),
			slog.String("offset", msg.TopicPartition.Offset.String()))
		return pendingComment{msg: msg}
	}
	return pendingComment{msg: msg, comment: c}
}

func (w *Worker) flush(ctx context.Context) error {
	items := w.buffer.GetAndClear()
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	status, err := w.process(ctx, items)
	metrics.BatchesTotal.WithLabelValues(status).Inc()
	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	return err
}

func (w *Worker) process(ctx context.Context, items []pendingComment) (string, error) {
	slog.Info("[CommentWorker] Processing batch", slog.Int("batch_size", len(items)))

	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.comment.Text
	}

	batch, err := ingest.NormalizeLines(lines)
	switch {
	case errors.Is(err, ingest.ErrEmptyInput):
		slog.Warn("[CommentWorker] Batch contained no usable comments",
			slog.Int("messages", len(items)))
		return "empty", w.commit(items)
	case err != nil:
		return "failed", err
	}

	summary, err := w.analyzer.Run(ctx, batch)
	if err != nil {
		return "failed", err
	}
	recordSummary(summary)

	var handlerErrs []error
	for _, h := range w.handlers {
		if err := h(ctx, batch, summary); err != nil {
			slog.Warn("[CommentWorker] Summary handler failed",
				slog.String("summary_id", summary.ID),
				slog.String("error", err.Error()))
			metrics.HandlerErrors.Inc()
			handlerErrs = append(handlerErrs, err)
		}
	}
	if err := errors.Join(handlerErrs...); err != nil {
		return "failed", err
	}

	if err := w.commit(items); err != nil {
		return "failed", err
	}
	return "ok", nil
}

func recordSummary(s models.AnalysisSummary) {
	metrics.CommentsAnalyzed.WithLabelValues(models.Positive.String()).Add(float64(s.SentimentCounts.Positive))
	metrics.CommentsAnalyzed.WithLabelValues(models.Negative.String()).Add(float64(s.SentimentCounts.Negative))
	metrics.CommentsAnalyzed.WithLabelValues(models.Neutral.String()).Add(float64(s.SentimentCounts.Neutral))
	metrics.DuplicatesIgnored.Add(float64(s.DuplicatesIgnored))
	metrics.SatisfactionScore.Set(s.SatisfactionScore)
}

// commit stores the highest offset seen per partition.
func (w *Worker) commit(items []pendingComment) error {
	latest := make(map[string]*kafka.Message)
	var order []string
	for _, it := range items {
		tp := it.msg.TopicPartition
		key := fmt.Sprintf("%s/%d", topicName(tp), tp.Partition)
		prev, ok := latest[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || tp.Offset > prev.TopicPartition.Offset {
			latest[key] = it.msg
		}
	}

	for _, key := range order {
		if err := w.committer.Commit(latest[key]); err != nil {
			return err
		}
	}
	return nil
}

func topicName(tp kafka.TopicPartition) string {
	if tp.Topic == nil {
		return ""
	}
	return *tp.Topic
}
