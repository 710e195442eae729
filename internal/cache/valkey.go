// Package cache keeps finished analysis summaries in Valkey, keyed by a digest
// of the normalized comments and the model and lexicons that scored them.
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/feedbacklens/internal/models"
)

const (
	keyPrefix  = "feedbacklens:summary:"
	maxRetries = 3
	retryDelay = 250 * time.Millisecond
)

type ValkeyOptions struct {
	Address  string
	Password string
	TLS      bool
}

// NewValkeyClient connects to Valkey and pings it once.
func NewValkeyClient(ctx context.Context, opts ValkeyOptions) (valkey.Client, error) {
	clientOpts := valkey.ClientOption{
		InitAddress:      []string{opts.Address},
		Password:         opts.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if opts.TLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", opts.Address))
	return client, nil
}

type SummaryCache struct {
	client     valkey.Client
	ttl        time.Duration
	retryDelay time.Duration
}

func NewSummaryCache(client valkey.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl, retryDelay: retryDelay}
}

// Key derives the cache key for a normalized batch scored by modelID with the
// lexicons fingerprinted by lexiconDigest. Comment order matters since results
// are positional. Normalized comments never contain a newline, so it is a safe
// separator.
func Key(modelID, lexiconDigest string, comments []models.Comment) string {
	h := sha256.New()
	h.Write([]byte(lexiconDigest))
	h.Write([]byte{'\n'})
	for _, c := range comments {
		h.Write([]byte(c))
		h.Write([]byte{'\n'})
	}
	return keyPrefix + modelID + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached summary for key. A miss is not an error.
func (sc *SummaryCache) Get(ctx context.Context, key string) (models.AnalysisSummary, bool, error) {
	res := sc.doWithRetry(ctx, sc.client.B().Get().Key(key).Build().Pin())

	data, err := res.AsBytes()
	if valkey.IsValkeyNil(err) {
		return models.AnalysisSummary{}, false, nil
	}
	if err != nil {
		return models.AnalysisSummary{}, false, fmt.Errorf("[ValkeyClient] get %s: %w", key, err)
	}

	summary, err := decode(data)
	if err != nil {
		return models.AnalysisSummary{}, false, err
	}

	slog.Debug("[ValkeyClient] Cache hit", slog.String("key", key))
	return summary, true, nil
}

func (sc *SummaryCache) Set(ctx context.Context, key string, summary models.AnalysisSummary) error {
	data, err := encode(summary)
	if err != nil {
		return err
	}

	var cmd valkey.Completed
	if secs := int64(sc.ttl / time.Second); secs > 0 {
		cmd = sc.client.B().Set().Key(key).Value(valkey.BinaryString(data)).ExSeconds(secs).Build().Pin()
	} else {
		cmd = sc.client.B().Set().Key(key).Value(valkey.BinaryString(data)).Build().Pin()
	}
	if err := sc.doWithRetry(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] set %s: %w", key, err)
	}

	slog.Info("[ValkeyClient] Cached analysis summary",
		slog.String("key", key),
		slog.String("summary_id", summary.ID))
	return nil
}

func (sc *SummaryCache) doWithRetry(ctx context.Context, cmd valkey.Completed) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < maxRetries; i++ {
		result = sc.client.Do(ctx, cmd)
		if err := result.Error(); err == nil || valkey.IsValkeyNil(err) || !isConnectionError(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		select {
		case <-ctx.Done():
			return result
		case <-time.After(sc.retryDelay):
		}
	}
	return result
}

func encode(summary models.AnalysisSummary) ([]byte, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to encode summary: %w", err)
	}
	return data, nil
}

func decode(data []byte) (models.AnalysisSummary, error) {
	var summary models.AnalysisSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return models.AnalysisSummary{}, fmt.Errorf("[ValkeyClient] failed to decode summary: %w", err)
	}
	return summary, nil
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}

func (sc *SummaryCache) Ping(ctx context.Context) error {
	return sc.client.Do(ctx, sc.client.B().Ping().Build()).Error()
}

func (sc *SummaryCache) Close() {
	sc.client.Close()
}
