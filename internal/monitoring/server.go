package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type trackedService struct {
	name    string
	healthy *atomic.Bool
}

// Server exposes Prometheus metrics and liveness/readiness probes.
type Server struct {
	echo      *echo.Echo
	addr      string
	clock     clockwork.Clock
	startTime time.Time

	mu       sync.RWMutex
	services []trackedService
}

func NewServer(addr string, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		addr:      addr,
		clock:     clock,
		startTime: clock.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
}

// Track adds a health flag that readiness reports on.
func (s *Server) Track(name string, healthy *atomic.Bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, trackedService{name: name, healthy: healthy})
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": s.clock.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make(map[string]string, len(s.services))
	ready := true
	for _, svc := range s.services {
		if svc.healthy.Load() {
			checks[svc.name] = "healthy"
			continue
		}
		checks[svc.name] = "unhealthy"
		ready = false
	}

	if !ready {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"checks": checks,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("[Monitoring] Serving metrics and health probes", slog.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
