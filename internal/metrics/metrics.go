package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rizz_academy"

// Metrics bundles the Prometheus collectors for the API. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	xpAwarded         *prometheus.CounterVec
	streakTransitions *prometheus.CounterVec
	llmCalls          *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on a
// registration conflict. Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route and method.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		xpAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "xp_awarded_total",
				Help:      "XP granted by activity.",
			},
			[]string{"activity"},
		),
		streakTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "streak_transitions_total",
				Help:      "Streak state machine transitions by kind.",
			},
			[]string{"transition"},
		),
		llmCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "calls_total",
				Help:      "Chat completions by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.xpAwarded, m.streakTransitions, m.llmCalls)
	return m
}

func (m *Metrics) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// AddXP records xp granted for activity and the streak transition it caused.
func (m *Metrics) AddXP(activity string, xp int, transition string) {
	if m == nil {
		return
	}
	if xp > 0 {
		m.xpAwarded.WithLabelValues(activity).Add(float64(xp))
	}
	if transition != "" {
		m.streakTransitions.WithLabelValues(transition).Inc()
	}
}

func (m *Metrics) IncLLMCall(provider, outcome string) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
}
