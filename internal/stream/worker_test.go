package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbacklens/internal/analysis"
	"github.com/spacesedan/feedbacklens/internal/metrics"
	"github.com/spacesedan/feedbacklens/internal/models"
)

type fakeReader struct {
	mu   sync.Mutex
	msgs []*kafka.Message
	err  error
}

func (f *fakeReader) ReadMessage(_ time.Duration) (*kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if len(f.msgs) == 0 {
		time.Sleep(time.Millisecond)
		return nil, kafka.NewError(kafka.ErrTimedOut, "timed out", false)
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

type fakeCommitter struct {
	mu        sync.Mutex
	committed []*kafka.Message
	err       error
}

func (f *fakeCommitter) CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	f.committed = append(f.committed, m)
	return []kafka.TopicPartition{m.TopicPartition}, nil
}

func (f *fakeCommitter) offsets() map[int32]kafka.Offset {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := map[int32]kafka.Offset{}
	for _, m := range f.committed {
		out[m.TopicPartition.Partition] = m.TopicPartition.Offset
	}
	return out
}

var testTopic = "comments"

func commentMsg(t *testing.T, partition int32, offset int64, text string) *kafka.Message {
	t.Helper()
	data, err := json.Marshal(models.CommentMessage{CommentID: text, Source: "test", Text: text})
	require.NoError(t, err)
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &testTopic, Partition: partition, Offset: kafka.Offset(offset)},
		Value:          data,
	}
}

func newTestWorker(t *testing.T, ctx context.Context, reader MessageReader, committer OffsetCommitter, size int, handlers ...SummaryHandler) *Worker {
	t.Helper()
	analyzer, err := analysis.NewAnalyzer(analysis.Config{ModelID: "lexicon", Clock: clockwork.NewFakeClock()})
	require.NoError(t, err)

	it := NewMessageIterator(ctx, reader)
	it.retryDelay = time.Millisecond
	ch := NewCommitHandler(ctx, committer)
	ch.retryDelay = time.Millisecond

	return NewWorker(it, ch, analyzer, WorkerConfig{BatchSize: size, BatchTimeout: time.Hour}, handlers...)
}

func TestWorker_FlushesFullBatchAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: []*kafka.Message{
		commentMsg(t, 0, 10, "great support team"),
		commentMsg(t, 1, 4, "terrible slow login"),
		commentMsg(t, 0, 11, "great support team"),
	}}
	committer := &fakeCommitter{}

	summaries := make(chan models.AnalysisSummary, 1)
	handler := func(_ context.Context, batch models.ParsedBatch, s models.AnalysisSummary) error {
		assert.Equal(t, 1, batch.DuplicateCount)
		summaries <- s
		return nil
	}

	w := newTestWorker(t, ctx, reader, committer, 3, handler)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var summary models.AnalysisSummary
	select {
	case summary = <-summaries:
	case <-time.After(5 * time.Second):
		t.Fatal("no summary produced")
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 3, summary.TotalComments)
	assert.Equal(t, 2, summary.UniqueComments)
	assert.Equal(t, models.SentimentCounts{Positive: 1, Negative: 1}, summary.SentimentCounts)
	assert.Equal(t, map[int32]kafka.Offset{0: 11, 1: 4}, committer.offsets())
}

func TestWorker_FlushesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	reader := &fakeReader{msgs: []*kafka.Message{commentMsg(t, 0, 1, "nice app")}}
	committer := &fakeCommitter{}

	var got []models.AnalysisSummary
	handler := func(_ context.Context, _ models.ParsedBatch, s models.AnalysisSummary) error {
		got = append(got, s)
		return nil
	}

	w := newTestWorker(t, ctx, reader, committer, 10, handler)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return w.buffer.Size() == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].UniqueComments)
	assert.Equal(t, map[int32]kafka.Offset{0: 1}, committer.offsets())
}

func TestWorker_HandlerFailureSkipsCommit(t *testing.T) {
	ctx := context.Background()
	committer := &fakeCommitter{}
	failing := func(context.Context, models.ParsedBatch, models.AnalysisSummary) error {
		return errors.New("store unavailable")
	}

	w := newTestWorker(t, ctx, &fakeReader{}, committer, 10, failing)
	w.buffer.Add(decodeComment(commentMsg(t, 0, 1, "good")))
	failedBefore := testutil.ToFloat64(metrics.BatchesTotal.WithLabelValues("failed"))
	handlerErrsBefore := testutil.ToFloat64(metrics.HandlerErrors)

	err := w.flush(ctx)
	require.Error(t, err)
	assert.Empty(t, committer.offsets())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.BatchesTotal.WithLabelValues("failed")))
	assert.Equal(t, handlerErrsBefore+1, testutil.ToFloat64(metrics.HandlerErrors))
}

func TestWorker_BlankBatchStillCommits(t *testing.T) {
	ctx := context.Background()
	committer := &fakeCommitter{}
	called := false
	handler := func(context.Context, models.ParsedBatch, models.AnalysisSummary) error {
		called = true
		return nil
	}

	w := newTestWorker(t, ctx, &fakeReader{}, committer, 10, handler)
	w.buffer.Add(decodeComment(commentMsg(t, 0, 3, "   ")))
	w.buffer.Add(decodeComment(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &testTopic, Partition: 0, Offset: 4},
		Value:          []byte("not json"),
	}))

	emptyBefore := testutil.ToFloat64(metrics.BatchesTotal.WithLabelValues("empty"))

	require.NoError(t, w.flush(ctx))
	assert.False(t, called)
	assert.Equal(t, emptyBefore+1, testutil.ToFloat64(metrics.BatchesTotal.WithLabelValues("empty")))
	assert.Equal(t, map[int32]kafka.Offset{0: 4}, committer.offsets())
}

func TestWorker_ReaderFailure(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{err: kafka.NewError(kafka.ErrAllBrokersDown, "brokers down", false)}

	w := newTestWorker(t, ctx, reader, &fakeCommitter{}, 10)
	err := w.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brokers down")
}

func TestMessageIterator_RetriesThenFails(t *testing.T) {
	reader := &fakeReader{err: errors.New("transient")}
	it := NewMessageIterator(context.Background(), reader)
	it.retryDelay = time.Millisecond

	msg, err := it.Next()
	assert.Nil(t, msg)
	require.Error(t, err)
}

func TestCommitHandler_Retries(t *testing.T) {
	committer := &fakeCommitter{err: errors.New("rebalance in progress")}
	ch := NewCommitHandler(context.Background(), committer)
	ch.retryDelay = time.Millisecond

	err := ch.Commit(commentMsg(t, 0, 1, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 5 retries")
}

func TestWorker_PausesWhileUnhealthy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: []*kafka.Message{commentMsg(t, 0, 1, "good")}}
	healthy := &atomic.Bool{}

	w := newTestWorker(t, ctx, reader, &fakeCommitter{}, 10).WithHealthCheck(healthy)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, w.buffer.Size())

	healthy.Store(true)
	require.Eventually(t, func() bool { return w.buffer.Size() == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
