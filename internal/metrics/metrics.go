// Package metrics holds the Prometheus collectors of the assessment service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "talentquiz"

// Metrics groups every collector the service exports.
type Metrics struct {
	blocksParsed      prometheus.Counter
	blocksDropped     prometheus.Counter
	questionsParsed   prometheus.Counter
	generations       *prometheus.CounterVec
	generationLatency prometheus.Histogram
	attemptsActive    prometheus.Gauge
	attemptsStarted   prometheus.Counter
	submissions       *prometheus.CounterVec
	scorePercentage   prometheus.Histogram
	persistFailures   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		blocksParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qcm_blocks_total",
			Help:      "Question blocks seen by the QCM parser.",
		}),
		blocksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qcm_blocks_dropped_total",
			Help:      "Question blocks dropped because no question text was found.",
		}),
		questionsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qcm_questions_total",
			Help:      "Questions emitted by the QCM parser.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Question generation requests by outcome.",
		}, []string{"outcome"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of the completion call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}),
		attemptsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attempts_active",
			Help:      "Attempts currently held in memory.",
		}),
		attemptsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_started_total",
			Help:      "Attempts moved to in progress.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Completed submissions by reason.",
		}, []string{"reason"}),
		scorePercentage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_percentage",
			Help:      "Distribution of submission percentages.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_persist_failures_total",
			Help:      "Submissions that could not be written to the database.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.blocksParsed,
			m.blocksDropped,
			m.questionsParsed,
			m.generations,
			m.generationLatency,
			m.attemptsActive,
			m.attemptsStarted,
			m.submissions,
			m.scorePercentage,
			m.persistFailures,
		)
	}
	return m
}

// ObserveParse records the block counts of one parse.
func (m *Metrics) ObserveParse(blocks, emitted, dropped int) {
	if m == nil {
		return
	}
	m.blocksParsed.Add(float64(blocks))
	m.questionsParsed.Add(float64(emitted))
	m.blocksDropped.Add(float64(dropped))
}

// ObserveGeneration records one generation outcome and its completion latency.
func (m *Metrics) ObserveGeneration(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	if took > 0 {
		m.generationLatency.Observe(took.Seconds())
	}
}

// AttemptTracked adjusts the in-memory attempt gauge.
func (m *Metrics) AttemptTracked(delta int) {
	if m == nil {
		return
	}
	m.attemptsActive.Add(float64(delta))
}

// AttemptStarted counts a started attempt.
func (m *Metrics) AttemptStarted() {
	if m == nil {
		return
	}
	m.attemptsStarted.Inc()
}

// SubmissionCompleted counts a submission and observes its percentage.
func (m *Metrics) SubmissionCompleted(reason string, percentage int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(reason).Inc()
	m.scorePercentage.Observe(float64(percentage))
}

// PersistFailed counts a submission that failed to persist.
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
