// Package monitor implements the Monitoring & Health subsystem: a health
// check loop, a metrics-publishing loop, an agent performance-threshold
// loop, and a security (resource-saturation) loop, each running on its own
// ticker.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
	"github.com/lookatitude/orchestrator-core/pkg/workflow"
)

const (
	DefaultHealthInterval      = 30 * time.Second
	DefaultMetricsInterval     = 60 * time.Second
	DefaultPerformanceInterval = 60 * time.Second
	DefaultSecurityInterval    = 60 * time.Second

	// DefaultPerformanceThreshold is the performance score below which an
	// active agent is flagged as degraded.
	DefaultPerformanceThreshold = 0.5
)

// Config tunes the monitor's loop cadences and thresholds. Zero values take
// the package defaults.
type Config struct {
	HealthInterval       time.Duration
	MetricsInterval      time.Duration
	PerformanceInterval  time.Duration
	SecurityInterval     time.Duration
	PerformanceThreshold float64
}

func (c Config) normalized() Config {
	if c.HealthInterval <= 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = DefaultMetricsInterval
	}
	if c.PerformanceInterval <= 0 {
		c.PerformanceInterval = DefaultPerformanceInterval
	}
	if c.SecurityInterval <= 0 {
		c.SecurityInterval = DefaultSecurityInterval
	}
	if c.PerformanceThreshold <= 0 {
		c.PerformanceThreshold = DefaultPerformanceThreshold
	}
	return c
}

// Monitor owns the four background loops that watch the engine and
// registry without ever mutating either.
type Monitor struct {
	engine   *workflow.Engine
	registry *agents.Registry
	sink     MetricsSink
	health   *healthRegistry
	logger   *slog.Logger
	cfg      Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Monitor. sink may be NoopSink{} when no metrics exporter
// is configured.
func New(engine *workflow.Engine, registry *agents.Registry, sink MetricsSink, logger *slog.Logger, cfg Config) *Monitor {
	if sink == nil {
		sink = NoopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		engine:   engine,
		registry: registry,
		sink:     sink,
		health:   newHealthRegistry(),
		logger:   logger,
		cfg:      cfg.normalized(),
	}
}

// RegisterHealthCheck adds a named component check to the health loop.
func (m *Monitor) RegisterHealthCheck(name string, checker HealthChecker) {
	m.health.register(name, checker)
}

// Start launches the four loops as goroutines. It returns immediately; call
// Stop to shut them down.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	loops := []struct {
		interval time.Duration
		run      func(context.Context)
	}{
		{m.cfg.HealthInterval, m.runHealthCheck},
		{m.cfg.MetricsInterval, m.runMetricsPublish},
		{m.cfg.PerformanceInterval, m.runPerformanceCheck},
		{m.cfg.SecurityInterval, m.runSecurityCheck},
	}
	for _, l := range loops {
		m.wg.Add(1)
		go m.loop(ctx, l.interval, l.run)
	}
}

// Stop cancels every loop and waits for them to return.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, run func(context.Context)) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (m *Monitor) runHealthCheck(ctx context.Context) {
	for _, res := range m.health.checkAll(ctx) {
		if res.Status != Healthy {
			m.logger.Warn("component health degraded", "component", res.Component, "status", res.Status, "message", res.Message)
		}
	}
}

func (m *Monitor) runMetricsPublish(context.Context) {
	stats := m.engine.Stats()

	if byStatus, ok := stats["by_status"].(map[workflow.Status]int); ok {
		for status, n := range byStatus {
			m.sink.SetWorkflowCount(string(status), n)
		}
	}
	if breaker, ok := stats["automation_breaker"]; ok {
		m.sink.SetBreakerState("automation", breakerStateString(breaker))
	}
	if n, ok := stats["rate_limiter_saturated"].(int); ok {
		m.sink.SetRateLimiterSaturation(n)
	}
}

func (m *Monitor) runPerformanceCheck(context.Context) {
	for _, a := range m.registry.List(agents.StatusActive) {
		m.sink.SetAgentPerformance(a.ID, a.PerformanceScore)
		if a.PerformanceScore < m.cfg.PerformanceThreshold {
			m.logger.Warn("agent performance below threshold", "agent_id", a.ID, "performance_score", a.PerformanceScore, "threshold", m.cfg.PerformanceThreshold)
		}
	}
}

func (m *Monitor) runSecurityCheck(context.Context) {
	stats := m.engine.Stats()
	n, ok := stats["rate_limiter_saturated"].(int)
	if ok && n > 0 {
		m.sink.IncSecurityAlert("rate_limit_saturation")
		m.logger.Warn("rate limiter saturated keys detected", "count", n)
	}
}

// breakerStateString stringifies a resilience.BreakerState-shaped value
// without importing the resilience package, since engine.Stats returns it
// as an any to keep monitor decoupled from the reliability layer's types.
func breakerStateString(v any) string {
	return fmt.Sprintf("%v", v)
}
