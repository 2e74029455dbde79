package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/arcrack/internal/config"
	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/metrics"
	"github.com/nao1215/arcrack/internal/model"
	"github.com/nao1215/arcrack/internal/stats"
)

// dateOptimizer is implemented by modes that narrow their range from the
// archive context before generating.
type dateOptimizer interface {
	OptimizeDateRange(gc model.GenerationContext)
	Range() (start, end int)
	SetRange(start, end int)
}

// Orchestrator sequences attack modes by priority policy.
// Run must not be called concurrently; Statistics may be called at any time.
type Orchestrator struct {
	modes map[string]generator.AttackMode
	names []string
	base  map[string]int

	// dateBase is the year range of the date mode at construction.
	dateBase [2]int

	priority   model.Priority
	maxPerMode int
	chunkSize  int
	skip       map[string]struct{}

	runID     string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	collector *stats.Collector
	progress  chan<- model.ProgressEvent
	onMode    func(model.ModeResult)

	mu         sync.Mutex
	statistics Statistics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPriority sets the priority policy.
func WithPriority(p model.Priority) Option {
	return func(o *Orchestrator) {
		o.priority = p
	}
}

// WithMaxCandidatesPerMode sets the reference cap used by file-size tuning.
func WithMaxCandidatesPerMode(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxPerMode = n
		}
	}
}

// WithChunkSize sets how many candidates are handed to the tester at once.
func WithChunkSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithSkipModes marks modes that already ran, for example in a resumed session.
func WithSkipModes(names ...string) Option {
	return func(o *Orchestrator) {
		for _, n := range names {
			o.skip[n] = struct{}{}
		}
	}
}

// WithRunID sets the id attached to logs and progress events.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithCollector feeds phase and progress data to a stats collector.
func WithCollector(c *stats.Collector) Option {
	return func(o *Orchestrator) {
		o.collector = c
	}
}

// WithProgress publishes a ProgressEvent after every tested chunk.
// Events are dropped when the channel is full.
func WithProgress(ch chan<- model.ProgressEvent) Option {
	return func(o *Orchestrator) {
		o.progress = ch
	}
}

// WithModeHook registers fn to be called after every mode that ran.
func WithModeHook(fn func(model.ModeResult)) Option {
	return func(o *Orchestrator) {
		o.onMode = fn
	}
}

// New creates an Orchestrator over modes. Each mode's current cap becomes
// its base cap for tuning.
func New(modes []generator.AttackMode, opts ...Option) (*Orchestrator, error) {
	if len(modes) == 0 {
		return nil, ErrNoModes
	}
	o := &Orchestrator{
		modes:      make(map[string]generator.AttackMode, len(modes)),
		base:       make(map[string]int, len(modes)),
		priority:   model.PriorityBalanced,
		maxPerMode: config.DefaultMaxCandidatesPerMode,
		chunkSize:  config.DefaultBatchSize,
		skip:       make(map[string]struct{}),
		statistics: newStatistics(),
	}
	for _, m := range modes {
		name := m.Name()
		if _, dup := o.modes[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMode, name)
		}
		o.modes[name] = m
		o.base[name] = m.MaxVariants()
		if d, ok := m.(dateOptimizer); ok && name == generator.ModeDate {
			o.dateBase[0], o.dateBase[1] = d.Range()
		}
		o.names = append(o.names, name)
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// Priority returns the active policy.
func (o *Orchestrator) Priority() model.Priority { return o.priority }

// ExecutionOrder returns the enabled modes in policy order. Modes missing
// from the policy table run last, in registration order.
func (o *Orchestrator) ExecutionOrder() []string {
	order := make([]string, 0, len(o.names))
	for _, name := range PriorityOrder(o.priority) {
		if _, ok := o.modes[name]; ok {
			order = append(order, name)
		}
	}
	for _, name := range o.names {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	return order
}

// Tune applies context- and policy-based caps to every mode and narrows
// the date range. Caps and range start from their values at construction,
// so repeated calls do not compound. It returns the applied caps.
func (o *Orchestrator) Tune(gc model.GenerationContext) map[string]int {
	if m, ok := o.modes[generator.ModeDate]; ok {
		if d, ok := m.(dateOptimizer); ok {
			d.SetRange(o.dateBase[0], o.dateBase[1])
			d.OptimizeDateRange(gc)
		}
	}
	limits := TuneLimits(o.priority, gc.FileSize, o.maxPerMode, o.base)
	for name, n := range limits {
		o.modes[name].SetMaxVariants(n)
	}
	return limits
}

// Run executes the modes in order until one finds the password, the
// context ends or the modes are exhausted. Mode failures are recorded in
// the result and never abort the run. A cancelled run returns the partial
// result together with the context error.
func (o *Orchestrator) Run(ctx context.Context, gc model.GenerationContext, tester Tester) (model.RunResult, error) {
	if tester == nil {
		return model.RunResult{}, ErrNoTester
	}

	start := time.Now()
	result := model.RunResult{ModeResults: []model.ModeResult{}}
	order := o.ExecutionOrder()
	limits := o.Tune(gc)

	o.logger.Info("starting attack",
		"run_id", o.runID,
		"priority", o.priority,
		"order", order,
		"file", gc.FileName,
	)
	o.logger.Debug("tuned mode caps", "run_id", o.runID, "caps", limits)

	var tested int64
	if o.collector != nil {
		tested = o.collector.Stats().Tested
	}

	stopped := false
	for i, name := range order {
		if _, skip := o.skip[name]; skip || stopped {
			result.ModeResults = append(result.ModeResults, model.ModeResult{Mode: name, Skipped: true})
			continue
		}

		if err := ctx.Err(); err != nil {
			o.logger.Warn("attack cancelled", "run_id", o.runID, "mode", name, "reason", err)
			result.Cancelled = true
			break
		}

		o.logger.Info("executing mode", "run_id", o.runID, "mode", name, "cap", limits[name])
		if o.collector != nil {
			o.collector.StartPhase(name, len(order))
		}

		res := o.runMode(ctx, name, gc, tester, &tested)
		result.ModeResults = append(result.ModeResults, res)
		result.TotalCandidatesTested += res.CandidatesTested

		if o.collector != nil {
			o.collector.EndPhase()
		}
		o.record(res)
		if o.onMode != nil {
			o.onMode(res)
		}

		if res.Success {
			result.Success = true
			result.Password = res.Password
			result.SuccessfulMode = name
			o.logger.Info("password found", "run_id", o.runID, "mode", name, "tested", res.CandidatesTested)
			for _, rest := range order[i+1:] {
				result.ModeResults = append(result.ModeResults, model.ModeResult{Mode: rest, Skipped: true})
			}
			break
		}
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		if shouldStop(o.priority, res) {
			o.logger.Info("stopping early: weak context", "run_id", o.runID, "generated", res.CandidatesGenerated)
			stopped = true
		}
	}

	result.ExecutionTime = time.Since(start)
	o.logger.Info("attack finished",
		"run_id", o.runID,
		"success", result.Success,
		"tested", result.TotalCandidatesTested,
		"elapsed", result.ExecutionTime,
	)
	if result.Cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

// runMode generates and tests the candidates of one mode.
func (o *Orchestrator) runMode(ctx context.Context, name string, gc model.GenerationContext, tester Tester, tested *int64) (res model.ModeResult) {
	res.Mode = name
	start := time.Now()
	defer func() {
		res.ExecutionTime = time.Since(start)
		o.metrics.ObserveMode(name, res.ExecutionTime)
	}()

	candidates, err := o.generate(ctx, name, gc)
	if err != nil {
		if ctx.Err() != nil {
			return res
		}
		o.logger.Error("mode failed", "run_id", o.runID, "mode", name, "error", err)
		res.Error = err.Error()
		return res
	}
	res.CandidatesGenerated = len(candidates)
	o.metrics.AddGenerated(name, len(candidates))
	o.logger.Debug("candidates generated", "run_id", o.runID, "mode", name, "count", len(candidates))

	phaseStart := time.Now()
	for chunk := range slices.Chunk(candidates, o.chunkSize) {
		br, err := tester.TestCandidates(ctx, chunk)
		res.CandidatesTested += br.Tested
		*tested += int64(br.Tested)
		o.metrics.AddTested(name, br.Tested)
		o.publish(name, *tested, br.Tested, phaseStart, res.CandidatesTested)

		if br.Success {
			res.Success = true
			res.Password = br.Password
			return res
		}
		if err != nil {
			if ctx.Err() == nil {
				o.logger.Error("testing failed", "run_id", o.runID, "mode", name, "error", err)
				res.Error = err.Error()
			}
			return res
		}
	}
	return res
}

// generate calls the mode and turns a panic into an error.
func (o *Orchestrator) generate(ctx context.Context, name string, gc model.GenerationContext) (candidates []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Debug("mode panicked", "run_id", o.runID, "mode", name, "stack", string(debug.Stack()))
			err = fmt.Errorf("mode %s panicked: %v", name, r)
		}
	}()
	candidates, err = o.modes[name].Generate(ctx, gc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s candidates: %w", name, err)
	}
	return candidates, nil
}

// publish updates the collector and emits a progress event.
func (o *Orchestrator) publish(mode string, total int64, delta int, phaseStart time.Time, phaseTested int) {
	var speed float64
	if d := time.Since(phaseStart).Seconds(); d > 0 {
		speed = float64(phaseTested) / d
	}

	ev := model.ProgressEvent{RunID: o.runID, Phase: mode, Tested: total, Speed: speed}
	if o.collector != nil {
		o.collector.AddPhaseProgress(int64(delta))
		o.collector.UpdateProgress(total, 0)
		o.collector.UpdateSpeed(speed)
		ev.ETA = o.collector.ETA()
	}
	if o.progress == nil {
		return
	}
	select {
	case o.progress <- ev:
	default:
	}
}

// IsCancelled reports whether err ends a run because its context ended.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
