package verifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/arcrack/internal/config"
	"github.com/nao1215/arcrack/internal/metrics"
	"github.com/nao1215/arcrack/internal/model"
)

// errFound stops the remaining oracles of a batch once one succeeded.
var errFound = errors.New("password found")

// Stats are the cumulative counters of a BatchVerifier.
type Stats struct {
	TotalTested   int64 `json:"totalTested"`
	BatchesTested int64 `json:"batchesTested"`
	SuccessCount  int64 `json:"successCount"`
}

// BatchVerifier queues candidates and verifies them in concurrent batches.
// It is safe for concurrent use.
type BatchVerifier struct {
	oracle    Oracle
	batchSize int
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	queue []string
	stats Stats
}

// Option configures a BatchVerifier.
type Option func(*BatchVerifier)

// WithBatchSize sets the number of candidates verified concurrently.
func WithBatchSize(n int) Option {
	return func(v *BatchVerifier) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// WithRateLimit limits oracle starts to rps per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(v *BatchVerifier) {
		if rps <= 0 {
			v.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		v.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *BatchVerifier) {
		v.logger = logger
	}
}

// WithMetrics records batch counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *BatchVerifier) {
		v.metrics = m
	}
}

// New creates a BatchVerifier that tests candidates with oracle.
func New(oracle Oracle, opts ...Option) (*BatchVerifier, error) {
	if oracle == nil {
		return nil, ErrNoOracle
	}
	v := &BatchVerifier{
		oracle:    oracle,
		batchSize: config.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v, nil
}

// BatchSize returns the configured batch size.
func (v *BatchVerifier) BatchSize() int {
	return v.batchSize
}

// Add appends one candidate to the queue.
func (v *BatchVerifier) Add(candidate string) {
	v.mu.Lock()
	v.queue = append(v.queue, candidate)
	v.mu.Unlock()
}

// AddAll appends candidates to the queue in order.
func (v *BatchVerifier) AddAll(candidates []string) {
	v.mu.Lock()
	v.queue = append(v.queue, candidates...)
	v.mu.Unlock()
}

// QueueSize returns the number of queued candidates.
func (v *BatchVerifier) QueueSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue)
}

// ShouldTest reports whether a full batch is queued.
func (v *BatchVerifier) ShouldTest() bool {
	return v.QueueSize() >= v.batchSize
}

// take removes up to batchSize candidates from the head of the queue.
func (v *BatchVerifier) take() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := min(v.batchSize, len(v.queue))
	if n == 0 {
		return nil
	}
	batch := make([]string, n)
	copy(batch, v.queue[:n])
	v.queue = v.queue[n:]
	if len(v.queue) == 0 {
		v.queue = nil
	}
	return batch
}

// TestBatch removes up to one batch from the queue and races one oracle
// per candidate. It returns as soon as a candidate succeeds; the other
// oracles are cancelled. An empty queue yields a zero result.
//
// When ctx is cancelled before any candidate succeeded, the partial result
// is returned together with ctx.Err().
func (v *BatchVerifier) TestBatch(ctx context.Context) (model.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return model.BatchResult{}, err
	}

	batch := v.take()
	if len(batch) == 0 {
		return model.BatchResult{}, nil
	}
	v.metrics.IncBatches()

	var (
		winMu  sync.Mutex
		winner string
		won    bool
		tested atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(batch))

	for _, candidate := range batch {
		g.Go(func() error {
			if v.limiter != nil {
				if err := v.limiter.Wait(gctx); err != nil {
					return nil
				}
			}
			if gctx.Err() != nil {
				return nil
			}

			ok, err := v.oracle.Test(gctx, candidate)
			if err != nil {
				if gctx.Err() == nil {
					tested.Add(1)
					v.logger.Debug("oracle failed, candidate counted as rejected", "error", err)
				}
				return nil
			}
			tested.Add(1)
			if !ok {
				return nil
			}

			winMu.Lock()
			if !won {
				won = true
				winner = candidate
			}
			winMu.Unlock()
			return errFound
		})
	}

	err := g.Wait()

	result := model.BatchResult{Tested: int(tested.Load())}
	if won {
		result.Success = true
		result.Password = winner
	}

	v.mu.Lock()
	v.stats.TotalTested += tested.Load()
	v.stats.BatchesTested++
	if won {
		v.stats.SuccessCount++
	}
	v.mu.Unlock()

	if won {
		v.logger.Info("password found", "batch_size", len(batch))
		return result, nil
	}
	if err != nil && !errors.Is(err, errFound) {
		return result, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, nil
}

// Flush verifies batches until the queue is empty or a candidate succeeds.
// The returned result accumulates Tested over every batch.
func (v *BatchVerifier) Flush(ctx context.Context) (model.BatchResult, error) {
	var total model.BatchResult
	for v.QueueSize() > 0 {
		r, err := v.TestBatch(ctx)
		total.Tested += r.Tested
		if r.Success {
			total.Success = true
			total.Password = r.Password
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// TestCandidates verifies candidates in batches and stops at the first
// success. Candidates still queued after a success or an error are dropped.
func (v *BatchVerifier) TestCandidates(ctx context.Context, candidates []string) (model.BatchResult, error) {
	v.AddAll(candidates)
	r, err := v.Flush(ctx)
	if r.Success || err != nil {
		v.ClearQueue()
	}
	return r, err
}

// ClearQueue drops every queued candidate.
func (v *BatchVerifier) ClearQueue() {
	v.mu.Lock()
	v.queue = nil
	v.mu.Unlock()
}

// Reset drops the queue and zeroes the counters.
func (v *BatchVerifier) Reset() {
	v.mu.Lock()
	v.queue = nil
	v.stats = Stats{}
	v.mu.Unlock()
}

// BatchCount returns the number of batches the queued candidates fill.
func (v *BatchVerifier) BatchCount() int {
	n := v.QueueSize()
	return (n + v.batchSize - 1) / v.batchSize
}

// Stats returns a copy of the cumulative counters.
func (v *BatchVerifier) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}
