package stats

import (
	"math"
	"sync"
	"time"

	"github.com/nao1215/arcrack/internal/model"
)

const (
	// SpeedHistorySize is the number of speed values kept for peak and
	// recent-speed calculations.
	SpeedHistorySize = 10

	// SpeedSampleSize is the number of timestamped samples kept for export.
	SpeedSampleSize = 100

	// RecentSampleCount is the number of speed values the EWMA looks at.
	RecentSampleCount = 5

	// EWMAAlpha is the smoothing factor of the recent speed.
	EWMAAlpha = 0.5

	// RecentWeight is the share of the recent speed in the blended speed.
	// The lifetime average gets the rest.
	RecentWeight = 0.7

	// DefaultPhaseDuration is assumed for every phase until one finishes.
	DefaultPhaseDuration = 30 * time.Second

	// WarmupPeriod is the time during which FormatETA reports
	// "Calculating..." instead of an empty estimate.
	WarmupPeriod = 5 * time.Second
)

// SpeedSample is one timestamped speed observation.
type SpeedSample struct {
	Time  time.Time `json:"time"`
	Speed float64   `json:"speed"`
}

// Snapshot is a point-in-time view of a Collector.
type Snapshot struct {
	SessionID  string        `json:"sessionId"`
	StartTime  time.Time     `json:"startTime"`
	LastUpdate time.Time     `json:"lastUpdate"`
	Elapsed    time.Duration `json:"elapsed"`

	CurrentPhase string `json:"currentPhase,omitempty"`
	TotalPhases  int    `json:"totalPhases"`

	Tested int64 `json:"tested"`
	Total  int64 `json:"total,omitempty"`

	// Progress is round(tested/total*100), or -1 when the total is unknown.
	Progress int `json:"progress"`

	CurrentSpeed float64 `json:"currentSpeed"`
	AverageSpeed float64 `json:"averageSpeed"`
	PeakSpeed    float64 `json:"peakSpeed"`

	// ETA is zero when no estimate exists.
	ETA time.Duration `json:"eta"`

	// EstimatedCompletion is the zero time when no estimate exists.
	EstimatedCompletion time.Time `json:"estimatedCompletion,omitempty"`

	Phases []model.PhaseRecord `json:"phases,omitempty"`

	// CurrentPhaseTested and CurrentPhaseSpeed describe the running phase.
	CurrentPhaseTested int64   `json:"currentPhaseTested"`
	CurrentPhaseSpeed  float64 `json:"currentPhaseSpeed"`
}

// Simple is the display-ready form of a Snapshot.
type Simple struct {
	Speed    string `json:"speed"`
	Progress string `json:"progress"`
	Phase    string `json:"phase"`
	ETA      string `json:"eta"`
	Tested   string `json:"tested"`
	Total    string `json:"total"`
}

// Export is the full record of a run, for logs and reports.
type Export struct {
	SessionID    string              `json:"sessionId"`
	StartTime    time.Time           `json:"startTime"`
	EndTime      time.Time           `json:"endTime"`
	Duration     time.Duration       `json:"duration"`
	Tested       int64               `json:"tested"`
	Total        int64               `json:"total,omitempty"`
	AverageSpeed float64             `json:"averageSpeed"`
	PeakSpeed    float64             `json:"peakSpeed"`
	Phases       []model.PhaseRecord `json:"phases"`
	SpeedSamples []SpeedSample       `json:"speedSamples"`
}

// Collector accumulates counters of one job. It is safe for concurrent use.
type Collector struct {
	mu  sync.Mutex
	now func() time.Time

	sessionID  string
	startTime  time.Time
	lastUpdate time.Time

	currentPhase       string
	totalPhases        int
	phaseStart         time.Time
	currentPhaseTested int64
	phases             []model.PhaseRecord

	tested int64
	total  int64

	currentSpeed float64
	speedHistory []float64
	speedSamples []SpeedSample
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock replaces time.Now. Tests use it to control elapsed time.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCollector creates a Collector for the given session.
func NewCollector(sessionID string, opts ...Option) *Collector {
	c := &Collector{
		sessionID: sessionID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startTime = c.now()
	c.lastUpdate = c.startTime
	return c
}

// UpdateProgress sets the cumulative tested count and the total. A total
// of zero means the size of the search space is unknown.
func (c *Collector) UpdateProgress(tested, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tested = tested
	c.total = total
	c.lastUpdate = c.now()
}

// UpdateSpeed records the current verification speed in candidates per second.
func (c *Collector) UpdateSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.currentSpeed = speed
	c.lastUpdate = now

	c.speedHistory = append(c.speedHistory, speed)
	if len(c.speedHistory) > SpeedHistorySize {
		c.speedHistory = c.speedHistory[len(c.speedHistory)-SpeedHistorySize:]
	}
	c.speedSamples = append(c.speedSamples, SpeedSample{Time: now, Speed: speed})
	if len(c.speedSamples) > SpeedSampleSize {
		c.speedSamples = c.speedSamples[len(c.speedSamples)-SpeedSampleSize:]
	}
}

// StartPhase ends the running phase, if any, and starts a new one.
// totalPhases is the number of phases the job expects to run; zero
// means unknown.
func (c *Collector) StartPhase(name string, totalPhases int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endPhaseLocked()
	c.currentPhase = name
	c.totalPhases = totalPhases
	c.phaseStart = c.now()
	c.currentPhaseTested = 0
}

// AddPhaseProgress adds n verified candidates to the running phase.
func (c *Collector) AddPhaseProgress(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentPhaseTested += n
}

// EndPhase closes the running phase and records it. It is a no-op when
// no phase is running.
func (c *Collector) EndPhase() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endPhaseLocked()
}

func (c *Collector) endPhaseLocked() {
	if c.currentPhase == "" {
		return
	}
	end := c.now()
	rec := model.PhaseRecord{
		Name:   c.currentPhase,
		Start:  c.phaseStart,
		End:    end,
		Tested: c.currentPhaseTested,
	}
	if d := rec.Duration().Seconds(); d > 0 {
		rec.AvgSpeed = float64(rec.Tested) / d
	}
	c.phases = append(c.phases, rec)
	c.currentPhase = ""
	c.currentPhaseTested = 0
}

// Phases returns the completed phases in order.
func (c *Collector) Phases() []model.PhaseRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]model.PhaseRecord(nil), c.phases...)
}

// Stats returns a snapshot of every counter and estimate.
func (c *Collector) Stats() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	eta := c.etaLocked(now)
	s := Snapshot{
		SessionID:          c.sessionID,
		StartTime:          c.startTime,
		LastUpdate:         c.lastUpdate,
		Elapsed:            now.Sub(c.startTime),
		CurrentPhase:       c.currentPhase,
		TotalPhases:        c.totalPhases,
		Tested:             c.tested,
		Total:              c.total,
		Progress:           progress(c.tested, c.total),
		CurrentSpeed:       c.currentSpeed,
		AverageSpeed:       c.averageSpeedLocked(now),
		PeakSpeed:          c.peakSpeedLocked(),
		ETA:                eta,
		Phases:             append([]model.PhaseRecord(nil), c.phases...),
		CurrentPhaseTested: c.currentPhaseTested,
	}
	if eta > 0 {
		s.EstimatedCompletion = now.Add(eta)
	}
	if c.currentPhase != "" {
		if d := now.Sub(c.phaseStart).Seconds(); d > 0 {
			s.CurrentPhaseSpeed = float64(c.currentPhaseTested) / d
		}
	}
	return s
}

// ETA returns the estimated remaining time, or zero when there is no
// estimate yet.
func (c *Collector) ETA() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.etaLocked(c.now())
}

// FormatETA renders the ETA. An empty estimate reads "Calculating..."
// during the warm-up period and "Unknown" afterwards.
func (c *Collector) FormatETA() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	return c.formatETALocked(now, c.etaLocked(now))
}

func (c *Collector) formatETALocked(now time.Time, eta time.Duration) string {
	if eta <= 0 {
		if now.Sub(c.startTime) < WarmupPeriod {
			return "Calculating..."
		}
		return "Unknown"
	}
	return FormatDuration(eta)
}

// SimpleStats returns the display strings the CLI prints.
func (c *Collector) SimpleStats() Simple {
	s := c.Stats()

	c.mu.Lock()
	eta := c.formatETALocked(s.StartTime.Add(s.Elapsed), s.ETA)
	c.mu.Unlock()

	phase := s.CurrentPhase
	if phase == "" {
		phase = "Initializing"
	}
	pct := "-"
	if s.Progress >= 0 {
		pct = formatPercent(s.Progress)
	}
	return Simple{
		Speed:    FormatSpeed(s.CurrentSpeed),
		Progress: pct,
		Phase:    phase,
		ETA:      eta,
		Tested:   FormatNumber(s.Tested),
		Total:    FormatNumber(s.Total),
	}
}

// Export returns the full record of the run so far.
func (c *Collector) Export() Export {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	return Export{
		SessionID:    c.sessionID,
		StartTime:    c.startTime,
		EndTime:      now,
		Duration:     now.Sub(c.startTime),
		Tested:       c.tested,
		Total:        c.total,
		AverageSpeed: c.averageSpeedLocked(now),
		PeakSpeed:    c.peakSpeedLocked(),
		Phases:       append([]model.PhaseRecord(nil), c.phases...),
		SpeedSamples: append([]SpeedSample(nil), c.speedSamples...),
	}
}

// Reset clears every counter and restarts the clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = c.now()
	c.lastUpdate = c.startTime
	c.currentPhase = ""
	c.totalPhases = 0
	c.phaseStart = time.Time{}
	c.currentPhaseTested = 0
	c.phases = nil
	c.tested = 0
	c.total = 0
	c.currentSpeed = 0
	c.speedHistory = nil
	c.speedSamples = nil
}

func (c *Collector) averageSpeedLocked(now time.Time) float64 {
	elapsed := now.Sub(c.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(c.tested) / elapsed
}

func (c *Collector) peakSpeedLocked() float64 {
	peak := 0.0
	for _, v := range c.speedHistory {
		peak = max(peak, v)
	}
	return peak
}

// recentSpeedLocked is the EWMA over the last RecentSampleCount speeds.
func (c *Collector) recentSpeedLocked() float64 {
	if len(c.speedHistory) == 0 {
		return 0
	}
	samples := c.speedHistory[max(0, len(c.speedHistory)-RecentSampleCount):]
	ewma := samples[0]
	for _, v := range samples[1:] {
		ewma = EWMAAlpha*v + (1-EWMAAlpha)*ewma
	}
	return ewma
}

func (c *Collector) etaLocked(now time.Time) time.Duration {
	recent := c.recentSpeedLocked()
	overall := c.averageSpeedLocked(now)

	speed := overall
	if recent > 0 {
		speed = RecentWeight*recent + (1-RecentWeight)*overall
	}
	if speed <= 0 {
		return 0
	}

	if c.total > 0 {
		remaining := max(0, c.total-c.tested)
		return secondsToDuration(float64(remaining) / speed)
	}
	return c.phaseBasedETALocked(now)
}

// phaseBasedETALocked estimates the remaining time from phase durations:
// what is left of the running phase plus one average phase for every
// phase still to come.
func (c *Collector) phaseBasedETALocked(now time.Time) time.Duration {
	if c.currentPhase == "" {
		return 0
	}

	avg := DefaultPhaseDuration
	if n := len(c.phases); n > 0 {
		var sum time.Duration
		for _, p := range c.phases {
			sum += p.Duration()
		}
		avg = sum / time.Duration(n)
	}

	remainingPhases := max(0, c.totalPhases-len(c.phases)-1)
	current := max(0, avg-now.Sub(c.phaseStart))
	return (current + time.Duration(remainingPhases)*avg).Round(time.Second)
}

func progress(tested, total int64) int {
	if total <= 0 {
		return -1
	}
	return int(math.Round(float64(tested) / float64(total) * 100))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s)) * time.Second
}
