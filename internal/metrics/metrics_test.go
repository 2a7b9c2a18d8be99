package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	return 0
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.IncMentorOutcome("ok")
	m.IncMentorOutcome("ok")
	m.IncMentorOutcome("fallback")
	m.IncCompaction("llm")
	m.IncConsultation("server-fallback")
	m.ObserveUpstream("mentor", "200", 150*time.Millisecond)

	if got := counterValue(t, reg, "mentortable_table_mentor_outcomes_total", map[string]string{"outcome": "ok"}); got != 2 {
		t.Errorf("ok outcomes = %v, want 2", got)
	}
	if got := counterValue(t, reg, "mentortable_history_compactions_total", map[string]string{"mode": "llm"}); got != 1 {
		t.Errorf("llm compactions = %v, want 1", got)
	}
	if got := counterValue(t, reg, "mentortable_table_consultations_total", map[string]string{"provider": "server-fallback"}); got != 1 {
		t.Errorf("consultations = %v, want 1", got)
	}
	if got := counterValue(t, reg, "mentortable_llm_request_duration_seconds", map[string]string{"purpose": "mentor", "status": "200"}); got != 1 {
		t.Errorf("upstream samples = %v, want 1", got)
	}
}

func TestMustNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := MustNew(reg)
	b := MustNew(reg)

	a.IncCompaction("none")
	b.IncCompaction("none")
	if got := counterValue(t, reg, "mentortable_history_compactions_total", map[string]string{"mode": "none"}); got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncMentorOutcome("ok")
	m.IncCompaction("none")
	m.IncConsultation("x")
	m.ObserveUpstream("mentor", "500", time.Second)
}
