// Package metrics holds the Prometheus collectors for model calls.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
)

// AI records model call counts, token usage and latency. A nil *AI is
// valid and records nothing.
type AI struct {
	calls    *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewAI creates the collectors and registers them on reg.
func NewAI(reg prometheus.Registerer) (*AI, error) {
	m := &AI{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindforge_ai_calls_total",
				Help: "Total number of AI chat completions by outcome",
			},
			[]string{"tier", "outcome", "reason"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindforge_ai_tokens_total",
				Help: "Tokens consumed by successful AI chat completions",
			},
			[]string{"tier", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mindforge_ai_call_duration_seconds",
				Help:    "Latency of successful AI chat completions",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"tier"},
		),
	}

	for _, c := range []prometheus.Collector{m.calls, m.tokens, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register AI metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveSuccess records a completed call.
func (m *AI) ObserveSuccess(tier string, latency time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(tier, OutcomeSuccess, "").Inc()
	m.duration.WithLabelValues(tier).Observe(latency.Seconds())
	m.tokens.WithLabelValues(tier, "prompt").Add(float64(promptTokens))
	m.tokens.WithLabelValues(tier, "completion").Add(float64(completionTokens))
}

// ObserveFallback records a call that produced fallback content.
func (m *AI) ObserveFallback(tier, reason string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(tier, OutcomeFallback, reason).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the
// node_exporter textfile format.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
