package orchestrator

import (
	"maps"
	"time"

	"github.com/nao1215/arcrack/internal/model"
)

// ModeStatistics aggregates every run of one mode.
type ModeStatistics struct {
	Usage       int           `json:"usage"`
	Successes   int           `json:"successes"`
	Generated   int           `json:"generated"`
	AverageTime time.Duration `json:"averageTime"`
}

// SuccessRate returns successes per use as a percentage.
func (s ModeStatistics) SuccessRate() float64 {
	if s.Usage == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Usage) * 100
}

// Statistics aggregates every run of an Orchestrator.
type Statistics struct {
	TotalCandidatesGenerated int                       `json:"totalCandidatesGenerated"`
	Modes                    map[string]ModeStatistics `json:"modes"`
}

func newStatistics() Statistics {
	return Statistics{Modes: make(map[string]ModeStatistics)}
}

// record folds one mode result into the statistics. The average time is a
// running mean over all uses.
func (o *Orchestrator) record(res model.ModeResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.statistics.Modes[res.Mode]
	s.Usage++
	if res.Success {
		s.Successes++
	}
	s.Generated += res.CandidatesGenerated
	s.AverageTime = (s.AverageTime*time.Duration(s.Usage-1) + res.ExecutionTime) / time.Duration(s.Usage)
	o.statistics.Modes[res.Mode] = s
	o.statistics.TotalCandidatesGenerated += res.CandidatesGenerated
}

// Statistics returns a copy of the accumulated statistics.
func (o *Orchestrator) Statistics() Statistics {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Statistics{
		TotalCandidatesGenerated: o.statistics.TotalCandidatesGenerated,
		Modes:                    maps.Clone(o.statistics.Modes),
	}
}

// ResetStatistics clears the accumulated statistics.
func (o *Orchestrator) ResetStatistics() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.statistics = newStatistics()
}
