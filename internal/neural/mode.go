package neural

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/model"
)

var _ generator.AttackMode = (*Mode)(nil)

// Mode exposes a StreamingGenerator as the "neural" attack mode. The
// generation context is ignored; the model samples unconditionally.
type Mode struct {
	gen         *StreamingGenerator
	maxVariants int
	logger      *slog.Logger
}

// NewMode creates the neural attack mode.
func NewMode(gen *StreamingGenerator, maxVariants int, logger *slog.Logger) *Mode {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mode{gen: gen, maxVariants: max(maxVariants, 1), logger: logger}
}

// Name returns the mode name.
func (m *Mode) Name() string { return generator.ModeNeural }

// MaxVariants returns the current output cap.
func (m *Mode) MaxVariants() int { return m.maxVariants }

// SetMaxVariants changes the output cap. Values below 1 are ignored.
func (m *Mode) SetMaxVariants(n int) {
	if n > 0 {
		m.maxVariants = n
	}
}

// Generate streams up to MaxVariants candidates. A stalled backend ends
// the mode with whatever was produced so far.
func (m *Mode) Generate(ctx context.Context, _ model.GenerationContext) ([]string, error) {
	out, err := m.gen.Generate(ctx, m.maxVariants)
	if errors.Is(err, ErrStalled) {
		m.logger.Debug("neural backend stalled", "backend", m.gen.Backend().Name(), "produced", len(out))
		return out, nil
	}
	return out, err
}
