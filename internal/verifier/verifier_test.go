package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// secretOracle accepts only want and counts invocations.
func secretOracle(want string, calls *atomic.Int64) Oracle {
	return OracleFunc(func(_ context.Context, password string) (bool, error) {
		calls.Add(1)
		return password == want, nil
	})
}

func candidates(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("cand%03d", i)
	}
	return out
}

// TestNew tests the constructor.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil oracle", func(t *testing.T) {
		t.Parallel()
		if _, err := New(nil); !errors.Is(err, ErrNoOracle) {
			t.Errorf("expected ErrNoOracle, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int64
		v, err := New(secretOracle("x", &calls))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if v.BatchSize() != 100 {
			t.Errorf("expected default batch size 100, got %d", v.BatchSize())
		}
	})

	t.Run("ignores non-positive batch size", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int64
		v, err := New(secretOracle("x", &calls), WithBatchSize(0))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if v.BatchSize() != 100 {
			t.Errorf("expected default batch size 100, got %d", v.BatchSize())
		}
	})
}

// TestBatchVerifier_Queue tests queue bookkeeping.
func TestBatchVerifier_Queue(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	v, err := New(secretOracle("x", &calls), WithBatchSize(10))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	v.Add("one")
	v.AddAll(candidates(8))
	if v.QueueSize() != 9 {
		t.Errorf("expected 9 queued, got %d", v.QueueSize())
	}
	if v.ShouldTest() {
		t.Error("ShouldTest should be false below batch size")
	}

	v.AddAll(candidates(3))
	if !v.ShouldTest() {
		t.Error("ShouldTest should be true at batch size")
	}
	if v.BatchCount() != 2 {
		t.Errorf("expected 2 batches, got %d", v.BatchCount())
	}

	v.ClearQueue()
	if v.QueueSize() != 0 {
		t.Errorf("expected empty queue, got %d", v.QueueSize())
	}
	if calls.Load() != 0 {
		t.Errorf("queue operations must not call the oracle, got %d calls", calls.Load())
	}
}

// TestBatchVerifier_TestBatch tests single-batch outcomes.
func TestBatchVerifier_TestBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		queued      []string
		secret      string
		wantSuccess bool
		wantTested  int
		wantLeft    int
	}{
		{
			name:       "empty queue",
			queued:     nil,
			secret:     "x",
			wantTested: 0,
		},
		{
			name:       "no match",
			queued:     candidates(5),
			secret:     "nope",
			wantTested: 5,
		},
		{
			name:        "match",
			queued:      candidates(5),
			secret:      "cand003",
			wantSuccess: true,
			wantTested:  5,
		},
		{
			name:       "takes at most one batch",
			queued:     candidates(25),
			secret:     "cand020",
			wantTested: 10,
			wantLeft:   15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			v, err := New(secretOracle(tt.secret, &calls), WithBatchSize(10))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			v.AddAll(tt.queued)

			r, err := v.TestBatch(context.Background())
			if err != nil {
				t.Fatalf("TestBatch failed: %v", err)
			}
			if r.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", r.Success, tt.wantSuccess)
			}
			if tt.wantSuccess && r.Password != tt.secret {
				t.Errorf("Password = %q, want %q", r.Password, tt.secret)
			}
			// A success cancels the oracles that have not answered yet.
			if tt.wantSuccess {
				if r.Tested < 1 || r.Tested > tt.wantTested {
					t.Errorf("Tested = %d, want 1..%d", r.Tested, tt.wantTested)
				}
			} else if r.Tested != tt.wantTested {
				t.Errorf("Tested = %d, want %d", r.Tested, tt.wantTested)
			}
			if v.QueueSize() != tt.wantLeft {
				t.Errorf("QueueSize = %d, want %d", v.QueueSize(), tt.wantLeft)
			}
		})
	}
}

// TestBatchVerifier_RaceCancelsLosers tests that a success does not wait
// for slow oracles of the same batch.
func TestBatchVerifier_RaceCancelsLosers(t *testing.T) {
	t.Parallel()

	var cancelled atomic.Int64
	oracle := OracleFunc(func(ctx context.Context, password string) (bool, error) {
		if password == "winner" {
			return true, nil
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return false, ctx.Err()
		case <-time.After(10 * time.Second):
			return false, nil
		}
	})

	v, err := New(oracle, WithBatchSize(8))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v.AddAll([]string{"slow1", "slow2", "winner", "slow3"})

	start := time.Now()
	r, err := v.TestBatch(context.Background())
	if err != nil {
		t.Fatalf("TestBatch failed: %v", err)
	}
	if !r.Success || r.Password != "winner" {
		t.Fatalf("expected winner, got %+v", r)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("race did not short-circuit, took %v", elapsed)
	}
	if cancelled.Load() != 3 {
		t.Errorf("expected 3 cancelled oracles, got %d", cancelled.Load())
	}
	if r.Tested != 1 {
		t.Errorf("expected only the winner to be counted, got %d", r.Tested)
	}
	if v.Stats().TotalTested != 1 {
		t.Errorf("expected 1 tested in stats, got %d", v.Stats().TotalTested)
	}
}

// TestBatchVerifier_OracleErrorsAreRejections tests that failing oracles
// do not fail the batch.
func TestBatchVerifier_OracleErrorsAreRejections(t *testing.T) {
	t.Parallel()

	oracle := OracleFunc(func(_ context.Context, password string) (bool, error) {
		if password == "good" {
			return true, nil
		}
		return false, errors.New("spawn failed")
	})
	v, err := New(oracle, WithBatchSize(4))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	v.AddAll([]string{"a", "b", "c"})
	r, err := v.TestBatch(context.Background())
	if err != nil {
		t.Fatalf("TestBatch failed: %v", err)
	}
	if r.Success || r.Tested != 3 {
		t.Errorf("expected 3 rejected, got %+v", r)
	}

	v.AddAll([]string{"a", "good"})
	r, err = v.TestBatch(context.Background())
	if err != nil {
		t.Fatalf("TestBatch failed: %v", err)
	}
	if !r.Success {
		t.Error("expected success despite failing siblings")
	}
}

// TestBatchVerifier_Cancelled tests cancellation before a batch starts.
func TestBatchVerifier_Cancelled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	v, err := New(secretOracle("x", &calls))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v.AddAll(candidates(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := v.TestBatch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no oracle calls, got %d", calls.Load())
	}
	if v.QueueSize() != 3 {
		t.Errorf("cancelled batch must leave the queue intact, got %d", v.QueueSize())
	}
}

// TestBatchVerifier_CancelledMidBatch tests that interrupted oracles are not counted.
func TestBatchVerifier_CancelledMidBatch(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 4)
	oracle := OracleFunc(func(ctx context.Context, password string) (bool, error) {
		if password == "fast" {
			return false, nil
		}
		started <- struct{}{}
		<-ctx.Done()
		return false, ctx.Err()
	})
	v, err := New(oracle, WithBatchSize(4))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v.AddAll([]string{"fast", "slow1", "slow2", "slow3"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for range 3 {
			<-started
		}
		cancel()
	}()

	r, err := v.TestBatch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if r.Success || r.Tested != 1 {
		t.Errorf("expected 1 tested candidate, got %+v", r)
	}
	if v.Stats().TotalTested != 1 {
		t.Errorf("expected 1 tested in stats, got %d", v.Stats().TotalTested)
	}
}

// TestBatchVerifier_Flush tests multi-batch flushing and statistics.
func TestBatchVerifier_Flush(t *testing.T) {
	t.Parallel()

	t.Run("no match drains queue", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		v, err := New(secretOracle("nope", &calls), WithBatchSize(10))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		v.AddAll(candidates(35))

		r, err := v.Flush(context.Background())
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if r.Success || r.Tested != 35 {
			t.Errorf("unexpected result %+v", r)
		}
		if calls.Load() != 35 {
			t.Errorf("expected 35 oracle calls, got %d", calls.Load())
		}

		stats := v.Stats()
		if stats.TotalTested != 35 || stats.BatchesTested != 4 || stats.SuccessCount != 0 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("stops at success", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		v, err := New(secretOracle("cand012", &calls), WithBatchSize(10))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		v.AddAll(candidates(35))

		r, err := v.Flush(context.Background())
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if !r.Success || r.Password != "cand012" || r.Tested <= 10 || r.Tested > 20 {
			t.Errorf("unexpected result %+v", r)
		}
		if v.QueueSize() != 15 {
			t.Errorf("expected 15 left in queue, got %d", v.QueueSize())
		}
		if v.Stats().SuccessCount != 1 {
			t.Errorf("expected 1 success, got %d", v.Stats().SuccessCount)
		}

		v.Reset()
		if v.QueueSize() != 0 || v.Stats() != (Stats{}) {
			t.Error("Reset should clear queue and stats")
		}
	})
}

// TestBatchVerifier_TestCandidates tests the orchestrator entry point.
func TestBatchVerifier_TestCandidates(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	v, err := New(secretOracle("cand004", &calls), WithBatchSize(3), WithRateLimit(1000))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r, err := v.TestCandidates(context.Background(), candidates(10))
	if err != nil {
		t.Fatalf("TestCandidates failed: %v", err)
	}
	if !r.Success || r.Password != "cand004" || r.Tested < 4 || r.Tested > 6 {
		t.Errorf("unexpected result %+v", r)
	}
	if v.QueueSize() != 0 {
		t.Errorf("queue should be cleared after success, got %d", v.QueueSize())
	}
}
