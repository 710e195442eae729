package stream

import "time"

const (
	DefaultBatchSize    = 50
	DefaultBatchTimeout = 5 * time.Second
	MaxRetries          = 5
	RetryDelay          = 2 * time.Second
	MaxProduceRetries   = 3

	// pollTimeout bounds each ReadMessage so the worker can notice ticks and
	// cancellation between messages.
	pollTimeout = 100 * time.Millisecond
)
