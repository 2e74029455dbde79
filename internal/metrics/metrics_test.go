package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func setupMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m, reg
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m, _ := setupMetrics(t)
	m.AddGenerated("date", 100)
	m.AddGenerated("date", 50)
	m.AddGenerated("social", 7)
	m.AddGenerated("social", 0)
	m.AddTested("date", 30)
	m.IncBatches()
	m.IncBatches()
	m.AddNeuralDuplicates(4)
	m.SetNeuralBatchSize(120)
	m.AddPatternsLearned(9)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "generated date", got: testutil.ToFloat64(m.generated.WithLabelValues("date")), want: 150},
		{name: "generated social", got: testutil.ToFloat64(m.generated.WithLabelValues("social")), want: 7},
		{name: "tested date", got: testutil.ToFloat64(m.tested.WithLabelValues("date")), want: 30},
		{name: "batches", got: testutil.ToFloat64(m.batches), want: 2},
		{name: "neural duplicates", got: testutil.ToFloat64(m.neuralDups), want: 4},
		{name: "neural batch size", got: testutil.ToFloat64(m.neuralBatchSize), want: 120},
		{name: "patterns learned", got: testutil.ToFloat64(m.patternsLearned), want: 9},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestMetrics_Histograms(t *testing.T) {
	t.Parallel()

	m, reg := setupMetrics(t)
	m.ObserveOracle(OutcomeRejected, 20*time.Millisecond)
	m.ObserveOracle(OutcomeTimeout, 2*time.Second)
	m.ObserveMode("keyboard", time.Second)

	if n := testutil.CollectAndCount(m.oracleDuration); n != 2 {
		t.Errorf("expected 2 oracle series, got %d", n)
	}

	count, err := testutil.GatherAndCount(reg, "arcrack_mode_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 mode series, got %d", count)
	}
}

func TestMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.AddGenerated("date", 1)
	m.AddTested("date", 1)
	m.ObserveMode("date", time.Second)
	m.ObserveOracle(OutcomeAccepted, time.Second)
	m.IncBatches()
	m.SetNeuralBatchSize(1)
	m.AddNeuralDuplicates(1)
	m.AddPatternsLearned(1)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New failed: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Error("expected error registering twice on one registry")
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	m, reg := setupMetrics(t)
	m.AddTested("learned", 12)

	path := filepath.Join(t.TempDir(), "arcrack.prom")
	if err := WriteFile(path, reg); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read metrics file: %v", err)
	}
	if !strings.Contains(string(data), `arcrack_candidates_tested_total{mode="learned"} 12`) {
		t.Errorf("metrics file missing tested counter:\n%s", data)
	}
}
