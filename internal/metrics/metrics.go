// Package metrics exposes Prometheus collectors for mentor table activity.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mentortable"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	upstreamDuration *prometheus.HistogramVec
	mentorOutcomes   *prometheus.CounterVec
	compactions      *prometheus.CounterVec
	consultations    *prometheus.CounterVec
}

// MustNew registers the collectors with reg, reusing collectors that are
// already registered under the same names. Other registration errors panic.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of chat-completion calls by purpose and outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
		}, []string{"purpose", "status"}),
		mentorOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "mentor_outcomes_total",
			Help:      "Per-mentor orchestration outcomes.",
		}, []string{"outcome"}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "compactions_total",
			Help:      "History compactions by mode.",
		}, []string{"mode"}),
		consultations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "consultations_total",
			Help:      "Completed consultations by provider sentinel.",
		}, []string{"provider"}),
	}

	m.upstreamDuration = register(reg, m.upstreamDuration)
	m.mentorOutcomes = register(reg, m.mentorOutcomes)
	m.compactions = register(reg, m.compactions)
	m.consultations = register(reg, m.consultations)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveUpstream records one chat-completion call. purpose is "mentor",
// "retry", "repair" or "summary".
func (m *Metrics) ObserveUpstream(purpose, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(purpose, status).Observe(d.Seconds())
}

// IncMentorOutcome counts one mentor result: "ok", "repaired" or "fallback".
func (m *Metrics) IncMentorOutcome(outcome string) {
	if m == nil {
		return
	}
	m.mentorOutcomes.WithLabelValues(outcome).Inc()
}

// IncCompaction counts one history compaction by mode.
func (m *Metrics) IncCompaction(mode string) {
	if m == nil {
		return
	}
	m.compactions.WithLabelValues(mode).Inc()
}

// IncConsultation counts one completed consultation.
func (m *Metrics) IncConsultation(provider string) {
	if m == nil {
		return
	}
	m.consultations.WithLabelValues(provider).Inc()
}
