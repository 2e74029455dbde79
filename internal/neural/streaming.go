package neural

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/metrics"
)

// Streaming defaults.
const (
	DefaultWorkers         = 4
	DefaultDedupWindowSize = 50000

	// maxWorkerErrors is the number of consecutive backend failures after
	// which a worker gives up.
	maxWorkerErrors = 3

	// maxStaleBatches is the number of consecutive batches without a single
	// new candidate after which the stream fails with ErrStalled.
	maxStaleBatches = 20
)

// StreamingGenerator pulls batches from a Backend with several workers and
// yields deduplicated candidates from a single consumer. The dedup window
// lives as long as the generator, so repeated calls do not repeat recent
// candidates.
type StreamingGenerator struct {
	backend     Backend
	workers     int
	temperature float64
	topK        int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	controller  *BatchController

	mu     sync.Mutex
	window *DedupWindow
}

// Option configures a StreamingGenerator.
type Option func(*StreamingGenerator)

// WithWorkers sets the number of worker loops.
func WithWorkers(n int) Option {
	return func(g *StreamingGenerator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithDedupWindow sets the dedup window size.
func WithDedupWindow(n int) Option {
	return func(g *StreamingGenerator) {
		g.window = NewDedupWindow(n)
	}
}

// WithSampling sets the temperature and top-k passed to the backend.
func WithSampling(temperature float64, topK int) Option {
	return func(g *StreamingGenerator) {
		if temperature > 0 {
			g.temperature = temperature
		}
		if topK > 0 {
			g.topK = topK
		}
	}
}

// WithController replaces the batch controller.
func WithController(c *BatchController) Option {
	return func(g *StreamingGenerator) {
		g.controller = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *StreamingGenerator) {
		g.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *StreamingGenerator) {
		g.metrics = m
	}
}

// NewStreamingGenerator creates a generator over a loaded backend.
func NewStreamingGenerator(backend Backend, opts ...Option) *StreamingGenerator {
	g := &StreamingGenerator{
		backend:     backend,
		workers:     DefaultWorkers,
		temperature: DefaultTemperature,
		topK:        DefaultTopK,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.controller == nil {
		g.controller = NewBatchController()
	}
	if g.window == nil {
		g.window = NewDedupWindow(DefaultDedupWindowSize)
	}
	return g
}

// Backend returns the backend chosen at construction.
func (g *StreamingGenerator) Backend() Backend { return g.backend }

// BatchSize returns the current adaptive batch size.
func (g *StreamingGenerator) BatchSize() int { return g.controller.Size() }

// Generate collects up to n unique candidates.
func (g *StreamingGenerator) Generate(ctx context.Context, n int) ([]string, error) {
	out := make([]string, 0, min(n, DefaultMaxBatch))
	err := g.Stream(ctx, n, func(c string) bool {
		out = append(out, c)
		return true
	})
	return out, err
}

// Stream yields up to n unique candidates to yield. It stops early when
// yield returns false. Calls are serialized.
//
// When every worker has given up, Stream returns the last backend error.
// Candidates yielded before an error remain valid.
func (g *StreamingGenerator) Stream(ctx context.Context, n int, yield func(string) bool) error {
	if n <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errMu   sync.Mutex
		lastErr error
	)
	batches := make(chan []string, g.workers)
	eg, egCtx := errgroup.WithContext(ctx)
	for id := range g.workers {
		eg.Go(func() error {
			failures := 0
			for egCtx.Err() == nil {
				size := g.controller.Size()
				start := time.Now()
				batch, err := g.backend.GenerateBatch(egCtx, size, g.temperature, g.topK)
				if err != nil {
					if egCtx.Err() != nil {
						return nil
					}
					failures++
					g.logger.Debug("neural batch failed", "worker", id, "backend", g.backend.Name(), "error", err)
					if failures >= maxWorkerErrors {
						errMu.Lock()
						lastErr = err
						errMu.Unlock()
						return nil
					}
					continue
				}
				failures = 0
				g.metrics.SetNeuralBatchSize(g.controller.Record(len(batch), time.Since(start)))

				select {
				case batches <- batch:
				case <-egCtx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		_ = eg.Wait()
		close(batches)
	}()

	// stop cancels the workers and waits for them to exit.
	stop := func() {
		cancel()
		for range batches {
		}
	}

	produced, stale := 0, 0
	for batch := range batches {
		fresh, dups := 0, 0
		for _, c := range batch {
			if !generator.ValidLength(c) || !g.window.Add(c) {
				dups++
				continue
			}
			fresh++
			produced++
			if !yield(c) || produced >= n {
				g.metrics.AddNeuralDuplicates(dups)
				stop()
				return nil
			}
		}
		g.metrics.AddNeuralDuplicates(dups)

		if fresh > 0 {
			stale = 0
			continue
		}
		stale++
		if stale >= maxStaleBatches {
			stop()
			return ErrStalled
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to generate neural batch: %w", lastErr)
	}
	return errors.New("neural workers exited")
}
