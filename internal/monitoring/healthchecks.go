// Package monitoring tracks the health of the services the stream worker
// writes to.
package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/feedbacklens/internal/metrics"
)

const (
	HealthcheckInterval = 15 * time.Second
	healthcheckTimeout  = 5 * time.Second
)

type Check func(ctx context.Context) error

// Monitor runs check every interval and records the outcome in healthy until
// ctx is done.
func Monitor(ctx context.Context, clock clockwork.Clock, name string, interval time.Duration, check Check, healthy *atomic.Bool) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			checkCtx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
			err := check(checkCtx)
			cancel()

			wasHealthy := healthy.Swap(err == nil)
			if err == nil {
				metrics.DependencyHealthy.WithLabelValues(name).Set(1)
			} else {
				metrics.DependencyHealthy.WithLabelValues(name).Set(0)
			}
			switch {
			case err != nil && wasHealthy:
				slog.Warn("[HealthCheck] Service is unhealthy",
					slog.String("service", name),
					slog.String("error", err.Error()))
			case err == nil && !wasHealthy:
				slog.Info("[HealthCheck] Service recovered", slog.String("service", name))
			}
		}
	}
}

// AllHealthy reports whether every flag is set.
func AllHealthy(flags ...*atomic.Bool) bool {
	for _, f := range flags {
		if !f.Load() {
			return false
		}
	}
	return true
}
