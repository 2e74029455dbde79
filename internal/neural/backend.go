package neural

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Default generation parameters.
const (
	DefaultTemperature = 1.0
	DefaultTopK        = 50
	DefaultMaxLength   = 10
)

// Backend produces batches of sampled candidates.
// Implementations must allow concurrent GenerateBatch calls.
type Backend interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// LoadModel prepares the backend. It fails when the model or its
	// runtime is unavailable.
	LoadModel(ctx context.Context) error

	// GenerateBatch samples up to count candidates. The result may contain
	// duplicates and may be shorter than count.
	GenerateBatch(ctx context.Context, count int, temperature float64, topK int) ([]string, error)

	// Close releases the model.
	Close() error
}

// DiscoverConfig lists the backend sources in order of preference.
type DiscoverConfig struct {
	// ModelPath is a graph model file. Tried first.
	ModelPath string

	// Script and Interpreter run the subprocess backend. Tried second.
	Script      string
	Interpreter string

	// Fallback trains an in-memory graph from these words when neither
	// of the above is usable. Empty disables the fallback.
	Fallback []string

	// MaxLength bounds generated candidates.
	MaxLength int
}

// Discover returns the first backend that loads. It returns ErrNoBackend
// when none does; the reasons are logged at debug level.
func Discover(ctx context.Context, cfg DiscoverConfig, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var reasons []error

	if cfg.ModelPath != "" {
		b := NewGraphBackend(cfg.ModelPath)
		err := b.LoadModel(ctx)
		if err == nil {
			logger.Debug("using graph backend", "model", cfg.ModelPath)
			return b, nil
		}
		reasons = append(reasons, err)
	}

	if cfg.Script != "" {
		b := NewSubprocessBackend(cfg.Interpreter, cfg.Script, WithSubprocessMaxLength(cfg.MaxLength), WithSubprocessLogger(logger))
		err := b.LoadModel(ctx)
		if err == nil {
			logger.Debug("using subprocess backend", "script", cfg.Script)
			return b, nil
		}
		reasons = append(reasons, err)
	}

	if len(cfg.Fallback) > 0 {
		model, err := Train(cfg.Fallback, DefaultOrder, cfg.MaxLength)
		if err == nil {
			logger.Debug("using built-in graph backend", "words", len(cfg.Fallback))
			return NewGraphBackendFromModel("builtin", model), nil
		}
		reasons = append(reasons, err)
	}

	if len(reasons) > 0 {
		logger.Debug("no neural backend loaded", "error", errors.Join(reasons...))
		return nil, fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(reasons...))
	}
	return nil, ErrNoBackend
}
