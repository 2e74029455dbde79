package model

import "time"

// BatchResult is the outcome of verifying one bounded group of candidates.
type BatchResult struct {
	// Success is true when one candidate opened the archive.
	Success bool `json:"success"`

	// Password is the winning candidate when Success is true.
	Password string `json:"password,omitempty"`

	// Tested is the number of candidates the oracle gave a verdict on. Oracles
	// cut short by a success or by cancellation are not counted.
	Tested int `json:"tested"`
}

// ModeResult is the outcome of running one attack mode.
type ModeResult struct {
	Mode                string        `json:"mode"`
	Success             bool          `json:"success"`
	Password            string        `json:"password,omitempty"`
	CandidatesGenerated int           `json:"candidatesGenerated"`
	CandidatesTested    int           `json:"candidatesTested"`
	ExecutionTime       time.Duration `json:"executionTime"`

	// Error holds the message of a generator or verification failure.
	// A failed mode does not abort the run.
	Error string `json:"error,omitempty"`

	// Skipped is true when the mode never ran, for example after an early exit.
	Skipped bool `json:"skipped,omitempty"`
}

// RunResult is the outcome of a whole orchestrator run.
type RunResult struct {
	Success               bool          `json:"success"`
	Password              string        `json:"password,omitempty"`
	SuccessfulMode        string        `json:"successfulMode,omitempty"`
	TotalCandidatesTested int           `json:"totalCandidatesTested"`
	ExecutionTime         time.Duration `json:"executionTime"`
	ModeResults           []ModeResult  `json:"modeResults"`

	// Cancelled is true when the caller stopped the run before it finished.
	Cancelled bool `json:"cancelled,omitempty"`
}

// ProgressEvent is published periodically while a job runs.
type ProgressEvent struct {
	// RunID identifies the run that published the event.
	RunID string `json:"runId,omitempty"`

	// Phase is the attack mode currently executing.
	Phase string `json:"phase"`

	// Tested is the cumulative number of verified candidates.
	Tested int64 `json:"tested"`

	// Total is the expected number of candidates, zero when unknown.
	Total int64 `json:"total,omitempty"`

	// Speed is the current verification rate in candidates per second.
	Speed float64 `json:"speed"`

	// ETA is the estimated remaining time, zero when no estimate exists.
	ETA time.Duration `json:"eta"`
}
