// Package metrics exposes Prometheus counters for a recovery run.
//
// Collectors are registered against a caller-owned registry rather than
// the global default one, so every run and every test gets a clean set.
// All recorder methods accept a nil *Metrics and do nothing, which lets
// components record unconditionally.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arcrack"

// Oracle outcomes used as the "outcome" label.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Metrics groups the collectors of one run.
type Metrics struct {
	generated       *prometheus.CounterVec
	tested          *prometheus.CounterVec
	modeDuration    *prometheus.HistogramVec
	oracleDuration  *prometheus.HistogramVec
	batches         prometheus.Counter
	neuralBatchSize prometheus.Gauge
	neuralDups      prometheus.Counter
	patternsLearned prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_generated_total",
			Help:      "Candidates produced, by attack mode.",
		}, []string{"mode"}),
		tested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_tested_total",
			Help:      "Candidates verified against the oracle, by attack mode.",
		}, []string{"mode"}),
		modeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mode_duration_seconds",
			Help:      "Wall time of one attack mode.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"mode"}),
		oracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Wall time of one oracle invocation, by outcome.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"outcome"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Verification batches started.",
		}),
		neuralBatchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "neural_batch_size",
			Help:      "Current batch size of the neural generator.",
		}),
		neuralDups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neural_duplicates_total",
			Help:      "Neural candidates dropped by the dedup window.",
		}),
		patternsLearned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patterns_learned_total",
			Help:      "Pattern observations recorded from recovered passwords.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.generated, m.tested, m.modeDuration, m.oracleDuration,
		m.batches, m.neuralBatchSize, m.neuralDups, m.patternsLearned,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// AddGenerated counts n candidates produced by mode.
func (m *Metrics) AddGenerated(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.generated.WithLabelValues(mode).Add(float64(n))
}

// AddTested counts n candidates of mode verified against the oracle.
func (m *Metrics) AddTested(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tested.WithLabelValues(mode).Add(float64(n))
}

// ObserveMode records the wall time of one attack mode.
func (m *Metrics) ObserveMode(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.modeDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveOracle records one oracle invocation.
func (m *Metrics) ObserveOracle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.oracleDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncBatches counts one verification batch.
func (m *Metrics) IncBatches() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

// SetNeuralBatchSize records the current neural batch size.
func (m *Metrics) SetNeuralBatchSize(n int) {
	if m == nil {
		return
	}
	m.neuralBatchSize.Set(float64(n))
}

// AddNeuralDuplicates counts neural candidates dropped as duplicates.
func (m *Metrics) AddNeuralDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.neuralDups.Add(float64(n))
}

// AddPatternsLearned counts pattern observations.
func (m *Metrics) AddPatternsLearned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.patternsLearned.Add(float64(n))
}

// WriteFile writes the text exposition of g to path.
func WriteFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
