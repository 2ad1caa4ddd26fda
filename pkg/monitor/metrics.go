package monitor

import "github.com/prometheus/client_golang/prometheus"

// MetricsSink is where the monitor's metrics loop publishes its
// observations. Implementations must be safe for concurrent use.
type MetricsSink interface {
	SetWorkflowCount(status string, n int)
	SetBreakerState(name, state string)
	SetRateLimiterSaturation(n int)
	SetAgentPerformance(agentID string, score float64)
	IncSecurityAlert(reason string)
}

// NoopSink discards every observation; the monitor's default when no sink
// is given, and used by tests that don't assert on metrics.
type NoopSink struct{}

func (NoopSink) SetWorkflowCount(string, int)        {}
func (NoopSink) SetBreakerState(string, string)      {}
func (NoopSink) SetRateLimiterSaturation(int)        {}
func (NoopSink) SetAgentPerformance(string, float64) {}
func (NoopSink) IncSecurityAlert(string)             {}

// PrometheusSink publishes the orchestration core's runtime state as
// Prometheus gauges and counters.
type PrometheusSink struct {
	workflowCount        *prometheus.GaugeVec
	breakerState         *prometheus.GaugeVec
	rateLimiterSaturated prometheus.Gauge
	agentPerformance     *prometheus.GaugeVec
	securityAlerts       *prometheus.CounterVec
}

// NewPrometheusSink constructs a sink and registers its collectors against
// reg. Pass prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to expose via the default /metrics handler.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		workflowCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "workflows",
			Help:      "Current number of workflows by status.",
		}, []string{"status"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half_open, 2=open).",
		}, []string{"name"}),
		rateLimiterSaturated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "rate_limiter_saturated_keys",
			Help:      "Number of (operation, identity) keys currently at their rate limit.",
		}),
		agentPerformance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "agent_performance_score",
			Help:      "Last observed performance score per agent.",
		}, []string{"agent_id"}),
		securityAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "security_alerts_total",
			Help:      "Count of security-relevant conditions observed by the monitor.",
		}, []string{"reason"}),
	}

	reg.MustRegister(s.workflowCount, s.breakerState, s.rateLimiterSaturated, s.agentPerformance, s.securityAlerts)
	return s
}

func (s *PrometheusSink) SetWorkflowCount(status string, n int) {
	s.workflowCount.WithLabelValues(status).Set(float64(n))
}

func (s *PrometheusSink) SetBreakerState(name, state string) {
	var v float64
	switch state {
	case "HALF_OPEN":
		v = 1
	case "OPEN":
		v = 2
	}
	s.breakerState.WithLabelValues(name).Set(v)
}

func (s *PrometheusSink) SetRateLimiterSaturation(n int) {
	s.rateLimiterSaturated.Set(float64(n))
}

func (s *PrometheusSink) SetAgentPerformance(agentID string, score float64) {
	s.agentPerformance.WithLabelValues(agentID).Set(score)
}

func (s *PrometheusSink) IncSecurityAlert(reason string) {
	s.securityAlerts.WithLabelValues(reason).Inc()
}
