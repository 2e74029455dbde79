package pattern

import (
	"context"

	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/model"
)

var _ generator.AttackMode = (*LearnedMode)(nil)

// LearnedMode replays candidates derived from patterns learned on earlier
// jobs. With an empty cache it produces nothing.
type LearnedMode struct {
	cache       *Cache
	maxVariants int
}

// NewLearnedMode creates the attack mode backed by cache.
func NewLearnedMode(cache *Cache, maxVariants int) *LearnedMode {
	if maxVariants <= 0 {
		maxVariants = DefaultMaxGeneratedVariants
	}
	return &LearnedMode{cache: cache, maxVariants: maxVariants}
}

// Name returns the mode name.
func (m *LearnedMode) Name() string { return generator.ModeLearned }

// MaxVariants returns the current output cap.
func (m *LearnedMode) MaxVariants() int { return m.maxVariants }

// SetMaxVariants changes the output cap. Values below 1 are ignored.
func (m *LearnedMode) SetMaxVariants(n int) {
	if n > 0 {
		m.maxVariants = n
	}
}

// Generate matches the cached patterns against gc and expands them.
// Output is bounded by both the mode cap and the cache's variant limit.
func (m *LearnedMode) Generate(ctx context.Context, gc model.GenerationContext) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	patterns := m.cache.FindMatchingPatterns(gc)
	variants := m.cache.GeneratePasswordVariants(patterns, gc)
	if len(variants) > m.maxVariants {
		variants = variants[:m.maxVariants]
	}
	return variants, nil
}
