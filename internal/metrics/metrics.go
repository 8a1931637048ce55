package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "checkout"

// Metrics records checkout reconciliation activity.
type Metrics struct {
	triggers       *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	verifyLatency  *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	starts         *prometheus.CounterVec
}

// New creates collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_total",
				Help:      "Completion triggers received, by source and whether they won the transition.",
			},
			[]string{"trigger", "accepted"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "Terminal checkout outcomes by state.",
			},
			[]string{"state"},
		),
		verifyLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "verify_duration_seconds",
				Help:      "Latency of payment verification calls.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"success"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Checkout sessions still awaiting payment.",
			},
		),
		starts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "starts_total",
				Help:      "Checkout start requests by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.triggers, m.outcomes, m.verifyLatency, m.activeSessions, m.starts)
	return m
}

func (m *Metrics) Trigger(trigger string, accepted bool) {
	m.triggers.WithLabelValues(trigger, strconv.FormatBool(accepted)).Inc()
}

// Outcome counts a terminal state and releases the active session slot.
func (m *Metrics) Outcome(state string) {
	m.outcomes.WithLabelValues(state).Inc()
	m.activeSessions.Dec()
}

func (m *Metrics) ObserveVerify(d time.Duration, ok bool) {
	m.verifyLatency.WithLabelValues(strconv.FormatBool(ok)).Observe(d.Seconds())
}

func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// Start counts a start request; result is "widget", "free" or an error kind.
func (m *Metrics) Start(result string) {
	m.starts.WithLabelValues(result).Inc()
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
