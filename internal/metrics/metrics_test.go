package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestObserveParse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveParse(5, 3, 2)
	m.ObserveParse(1, 1, 0)

	assert.Equal(t, 6.0, counterValue(t, reg, "talentquiz_qcm_blocks_total"))
	assert.Equal(t, 4.0, counterValue(t, reg, "talentquiz_qcm_questions_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "talentquiz_qcm_blocks_dropped_total"))
}

func TestSubmissionAndGenerationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SubmissionCompleted("submitted", 80)
	m.SubmissionCompleted("timer_expired", 10)
	m.ObserveGeneration("ok", time.Second)
	m.PersistFailed()

	assert.Equal(t, 2.0, counterValue(t, reg, "talentquiz_submissions_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "talentquiz_generation_requests_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "talentquiz_submission_persist_failures_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveParse(1, 1, 0)
		m.ObserveGeneration("error", 0)
		m.AttemptTracked(1)
		m.AttemptStarted()
		m.SubmissionCompleted("submitted", 50)
		m.PersistFailed()
	})
}
