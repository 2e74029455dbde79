package model

import "time"

// JobReport summarizes one recovery run for report writers.
type JobReport struct {
	RunID       string    `json:"runId"`
	SessionID   string    `json:"sessionId,omitempty"`
	Archive     string    `json:"archive"`
	ArchiveSize int64     `json:"archiveSize,omitempty"`
	Priority    Priority  `json:"priority"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`

	Result RunResult     `json:"result"`
	Phases []PhaseRecord `json:"phases,omitempty"`

	AverageSpeed float64 `json:"averageSpeed"`
	PeakSpeed    float64 `json:"peakSpeed"`

	// LearnedPatterns is the number of patterns the cache recorded from the result.
	LearnedPatterns int `json:"learnedPatterns,omitempty"`

	// RevealPassword controls whether writers print the recovered password.
	// When false they print a masked placeholder.
	RevealPassword bool `json:"-"`
}

// Elapsed returns the wall time of the run.
func (r *JobReport) Elapsed() time.Duration {
	if r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// DisplayPassword returns the recovered password or a masked placeholder.
func (r *JobReport) DisplayPassword() string {
	if !r.Result.Success {
		return ""
	}
	if r.RevealPassword {
		return r.Result.Password
	}
	return "********"
}
