package orchestrator

import (
	"context"

	"github.com/nao1215/arcrack/internal/model"
)

// Tester verifies candidates against the archive. The verifier's
// BatchVerifier satisfies it.
//
// TestCandidates reports how many candidates it consumed and, on success,
// the password that opened the archive. It returns an error only when
// testing itself could not proceed.
type Tester interface {
	TestCandidates(ctx context.Context, candidates []string) (model.BatchResult, error)
}

// TesterFunc adapts a function to Tester.
type TesterFunc func(ctx context.Context, candidates []string) (model.BatchResult, error)

// TestCandidates calls f.
func (f TesterFunc) TestCandidates(ctx context.Context, candidates []string) (model.BatchResult, error) {
	return f(ctx, candidates)
}

// PerCandidate builds a Tester that checks candidates one at a time in
// order and stops at the first accepted one.
func PerCandidate(test func(ctx context.Context, password string) (bool, error)) Tester {
	return TesterFunc(func(ctx context.Context, candidates []string) (model.BatchResult, error) {
		var res model.BatchResult
		for _, c := range candidates {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Tested++
			ok, err := test(ctx, c)
			if err != nil {
				return res, err
			}
			if ok {
				res.Success = true
				res.Password = c
				return res, nil
			}
		}
		return res, nil
	})
}
