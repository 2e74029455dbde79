package model

import "time"

// Session is the persisted state of one recovery job.
// It is keyed by a stable hash of the archive path so that a restarted
// process finds the job it left behind.
type Session struct {
	// ID is the hex MD5 of the absolute archive path.
	ID string `json:"id"`

	// FilePath is the absolute archive path.
	FilePath string `json:"filePath"`

	// FileName is the base name of the archive.
	FileName string `json:"fileName"`

	// CurrentPhase names the attack mode or phase being executed.
	CurrentPhase string `json:"currentPhase"`

	// TestedCount is the number of candidates verified so far.
	TestedCount int64 `json:"testedCount"`

	// TotalCount is the size of the search space when known, zero otherwise.
	TotalCount int64 `json:"totalCount,omitempty"`

	// Status is the lifecycle state.
	Status SessionStatus `json:"status"`

	// Options are the job settings needed to resume it.
	Options SessionOptions `json:"options"`

	// PhaseHistory records completed phases in order.
	PhaseHistory []PhaseRecord `json:"phaseHistory,omitempty"`

	// StartTime is when the job was first created.
	StartTime time.Time `json:"startTime"`

	// LastUpdateTime is refreshed on every save.
	LastUpdateTime time.Time `json:"lastUpdateTime"`

	// EndTime is set when the session reaches a terminal status.
	EndTime *time.Time `json:"endTime,omitempty"`

	// FoundPassword holds the recovered password of a successful job.
	FoundPassword string `json:"foundPassword,omitempty"`
}

// Progress returns round(tested/total*100), or -1 when the total is unknown.
func (s *Session) Progress() int {
	if s.TotalCount <= 0 {
		return -1
	}
	p := int(float64(s.TestedCount)/float64(s.TotalCount)*100 + 0.5)
	if p > 100 {
		return 100
	}
	return p
}

// HasPhase reports whether a phase with the given name already completed.
func (s *Session) HasPhase(name string) bool {
	for _, p := range s.PhaseHistory {
		if p.Name == name {
			return true
		}
	}
	return false
}

// SessionOptions are the job settings stored with a session.
type SessionOptions struct {
	// Priority is the orchestrator policy.
	Priority Priority `json:"priority,omitempty"`

	// MinLength and MaxLength bound candidate length.
	MinLength int `json:"minLength,omitempty"`
	MaxLength int `json:"maxLength,omitempty"`

	// DictionaryPath is an optional word list that extends the built-in dictionary.
	DictionaryPath string `json:"dictionaryPath,omitempty"`

	// Keywords are user-supplied context tokens.
	Keywords []string `json:"keywords,omitempty"`

	// NeuralEnabled reports whether the neural generator takes part in the job.
	NeuralEnabled bool `json:"neuralEnabled,omitempty"`
}

// PhaseRecord describes one completed phase of a job.
type PhaseRecord struct {
	// Name is the phase or attack mode name.
	Name string `json:"name"`

	// Start and End bound the phase.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Tested is the number of candidates verified during the phase.
	Tested int64 `json:"tested"`

	// AvgSpeed is Tested divided by the phase duration, in candidates per second.
	AvgSpeed float64 `json:"avgSpeed"`
}

// Duration returns the wall time of the phase.
func (p PhaseRecord) Duration() time.Duration {
	if p.End.Before(p.Start) {
		return 0
	}
	return p.End.Sub(p.Start)
}
