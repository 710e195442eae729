package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/spacesedan/feedbacklens/internal/lexicon"
	"github.com/spacesedan/feedbacklens/internal/models"
)

func testSummary() models.AnalysisSummary {
	return models.AnalysisSummary{
		ID: "abc",
		Results: []models.ClassificationResult{
			{Comment: "great app", Sentiment: models.Positive, Confidence: 0.9, Keywords: []string{"great", "app"}},
		},
		TotalComments:     1,
		UniqueComments:    1,
		SentimentCounts:   models.SentimentCounts{Positive: 1},
		SatisfactionScore: 100,
		AverageConfidence: 0.9,
		ModelID:           "lexicon",
		Timestamp:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestCache(t *testing.T, ttl time.Duration) (*SummaryCache, *mock.Client) {
	t.Helper()
	client := mock.NewClient(gomock.NewController(t))
	sc := NewSummaryCache(client, ttl)
	sc.retryDelay = time.Millisecond
	return sc, client
}

func TestKey(t *testing.T) {
	a := []models.Comment{"great app", "slow login"}
	b := []models.Comment{"slow login", "great app"}
	digest := lexicon.Default().Digest()

	assert.Equal(t, Key("lexicon", digest, a), Key("lexicon", digest, a))
	assert.NotEqual(t, Key("lexicon", digest, a), Key("lexicon", digest, b), "order is significant")
	assert.NotEqual(t, Key("lexicon", digest, a), Key("vader", digest, a))
	assert.True(t, strings.HasPrefix(Key("lexicon", digest, a), keyPrefix+"lexicon:"))
}

func TestKey_DependsOnLexicons(t *testing.T) {
	comments := []models.Comment{"stellar support"}
	lexA := lexicon.Lexicons{Positive: lexicon.NewSet("stellar"), Negative: lexicon.NewSet("support"), Stopwords: lexicon.NewSet("the")}
	lexB := lexicon.Lexicons{Positive: lexicon.NewSet("support"), Negative: lexicon.NewSet("stellar"), Stopwords: lexicon.NewSet("the")}

	assert.NotEqual(t, Key("lexicon", lexA.Digest(), comments), Key("lexicon", lexB.Digest(), comments))
}

func TestEncodeDecode(t *testing.T) {
	summary := testSummary()

	data, err := encode(summary)
	require.NoError(t, err)

	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	_, err = decode([]byte("{"))
	require.Error(t, err)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE Operation")))
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	summary := testSummary()
	data, err := encode(summary)
	require.NoError(t, err)

	t.Run("hit", func(t *testing.T) {
		sc, client := newTestCache(t, time.Hour)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
			Return(mock.Result(mock.ValkeyString(string(data))))

		got, hit, err := sc.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, summary, got)
	})

	t.Run("miss is not an error", func(t *testing.T) {
		sc, client := newTestCache(t, time.Hour)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
			Return(mock.Result(mock.ValkeyNil()))

		_, hit, err := sc.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		sc, client := newTestCache(t, time.Hour)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
			Return(mock.Result(mock.ValkeyString("{")))

		_, hit, err := sc.Get(ctx, "k")
		require.Error(t, err)
		assert.False(t, hit)
	})
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	summary := testSummary()
	data, err := encode(summary)
	require.NoError(t, err)

	t.Run("expires after ttl", func(t *testing.T) {
		sc, client := newTestCache(t, 90*time.Second)
		client.EXPECT().Do(gomock.Any(), mock.Match("SET", "k", string(data), "EX", "90")).
			Return(mock.Result(mock.ValkeyString("OK")))

		require.NoError(t, sc.Set(ctx, "k", summary))
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		sc, client := newTestCache(t, 0)
		client.EXPECT().Do(gomock.Any(), mock.Match("SET", "k", string(data))).
			Return(mock.Result(mock.ValkeyString("OK")))

		require.NoError(t, sc.Set(ctx, "k", summary))
	})

	t.Run("sub-second ttl never expires", func(t *testing.T) {
		sc, client := newTestCache(t, 500*time.Millisecond)
		client.EXPECT().Do(gomock.Any(), mock.Match("SET", "k", string(data))).
			Return(mock.Result(mock.ValkeyString("OK")))

		require.NoError(t, sc.Set(ctx, "k", summary))
	})
}

func TestDoWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries connection errors", func(t *testing.T) {
		sc, client := newTestCache(t, 0)
		gomock.InOrder(
			client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
				Return(mock.ErrorResult(errors.New("dial tcp: connection refused"))).Times(2),
			client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
				Return(mock.Result(mock.ValkeyNil())),
		)

		_, hit, err := sc.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		sc, client := newTestCache(t, 0)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
			Return(mock.ErrorResult(errors.New("unexpected EOF"))).Times(maxRetries)

		_, _, err := sc.Get(ctx, "k")
		require.Error(t, err)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		sc, client := newTestCache(t, 0)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).
			Return(mock.ErrorResult(errors.New("WRONGTYPE Operation"))).Times(1)

		_, _, err := sc.Get(ctx, "k")
		require.Error(t, err)
	})
}
