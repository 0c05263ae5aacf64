package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const checkTimeout = 5 * time.Second

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc contributes a named section to the metrics report.
type StatsFunc func() map[string]interface{}

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Critical bool      `json:"critical"`
	Message  string    `json:"message,omitempty"`
	LastRun  time.Time `json:"last_run"`
}

type registeredCheck struct {
	fn       HealthCheckFunc
	critical bool
}

// Monitor owns the request metrics and the health checks of one server.
// A failing critical check makes the service unhealthy and not ready; a
// failing non-critical check only degrades it.
type Monitor struct {
	metrics     *Metrics
	environment string
	log         *slog.Logger

	mu     sync.RWMutex
	checks map[string]registeredCheck
	stats  map[string]StatsFunc
}

func NewMonitor(environment string, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		metrics:     NewMetrics(),
		environment: environment,
		log:         log,
		checks:      make(map[string]registeredCheck),
		stats:       make(map[string]StatsFunc),
	}
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return m.metrics.Middleware()
}

func (m *Monitor) RegisterHealthCheck(name string, critical bool, fn HealthCheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = registeredCheck{fn: fn, critical: critical}
}

func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[name] = fn
}

// RunHealthChecks runs every check concurrently, each under its own timeout.
func (m *Monitor) RunHealthChecks(ctx context.Context) map[string]HealthCheck {
	m.mu.RLock()
	checks := make(map[string]registeredCheck, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]HealthCheck, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check registeredCheck) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			result := HealthCheck{Name: name, Status: StatusHealthy, Critical: check.critical}
			if err := check.fn(checkCtx); err != nil {
				// Details stay in the log; /health is unauthenticated.
				result.Status = StatusUnhealthy
				result.Message = "unavailable"
				m.log.WarnContext(ctx, "health check failed", "check", name, "error", err)
			}
			result.LastRun = time.Now().UTC()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return results
}

func overallStatus(checks map[string]HealthCheck) string {
	status := StatusHealthy
	for _, check := range checks {
		if check.Status == StatusHealthy {
			continue
		}
		if check.Critical {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := m.RunHealthChecks(c.Request.Context())
		status := overallStatus(checks)

		code := http.StatusOK
		if status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":      status,
			"timestamp":   time.Now().UTC(),
			"environment": m.environment,
			"checks":      checks,
			"uptime":      m.metrics.Uptime().String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := m.RunHealthChecks(c.Request.Context())

		if overallStatus(checks) == StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now().UTC(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
		})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
			"uptime":    m.metrics.Uptime().String(),
		})
	}
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		names := make([]string, 0, len(m.stats))
		for name := range m.stats {
			names = append(names, name)
		}
		sort.Strings(names)
		sections := make(map[string]interface{}, len(names))
		for _, name := range names {
			sections[name] = m.stats[name]()
		}
		m.mu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"application": m.metrics.Snapshot(),
			"system":      systemMetrics(m.metrics.Uptime()),
			"components":  sections,
			"timestamp":   time.Now().UTC(),
		})
	}
}
