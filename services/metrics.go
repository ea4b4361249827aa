package services

import (
	"time"

	"cyberguard/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters the front ends record. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	superseded  *prometheus.CounterVec
	renders     *prometheus.CounterVec
	sections    prometheus.Histogram
}

// NewMetrics registers the collectors on registry, or on a fresh registry when
// registry is nil.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		Registry: registry,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cyberguard",
			Name:      "submissions_total",
			Help:      "Submissions to the analysis backend by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cyberguard",
			Name:      "submission_duration_seconds",
			Help:      "Backend round-trip time per submission.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"kind"}),
		superseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cyberguard",
			Name:      "superseded_total",
			Help:      "In-flight submissions cancelled by a newer one.",
		}, []string{"kind"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cyberguard",
			Name:      "renders_total",
			Help:      "Rendered views by kind and risk level.",
		}, []string{"kind", "risk"}),
		sections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cyberguard",
			Name:      "render_sections",
			Help:      "Number of sections per rendered view.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
	}
	registry.MustRegister(m.submissions, m.duration, m.superseded, m.renders, m.sections)
	return m
}

// Outcome labels for submissions.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeAPIError   = "api_error"
	OutcomeNetwork    = "network"
	OutcomeTimeout    = "timeout"
	OutcomeSuperseded = "superseded"
)

func (m *Metrics) ObserveSubmission(kind models.Kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(kind), outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeAPIError {
		m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeSuperseded(kind models.Kind) {
	if m == nil {
		return
	}
	m.superseded.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) observeRender(kind models.Kind, v *models.View) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(string(kind), string(v.Risk.Level)).Inc()
	m.sections.Observe(float64(len(v.Sections)))
}
