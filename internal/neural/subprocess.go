package neural

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/nao1215/arcrack/internal/config"
)

const stderrTail = 512

// SubprocessBackend runs an external inference script once per batch.
//
// The script is invoked as `interpreter script --args-file FILE`, where FILE
// holds {"count", "temperature", "top_k", "max_length"}. It must print
// {"passwords": [...]} or {"error": "..."} on stdout.
type SubprocessBackend struct {
	interpreter string
	script      string
	maxLength   int
	logger      *slog.Logger
	loaded      atomic.Bool
}

// SubprocessOption configures a SubprocessBackend.
type SubprocessOption func(*SubprocessBackend)

// WithSubprocessMaxLength sets the max_length argument.
func WithSubprocessMaxLength(n int) SubprocessOption {
	return func(b *SubprocessBackend) {
		if n > 0 {
			b.maxLength = n
		}
	}
}

// WithSubprocessLogger sets the logger.
func WithSubprocessLogger(logger *slog.Logger) SubprocessOption {
	return func(b *SubprocessBackend) {
		b.logger = logger
	}
}

// NewSubprocessBackend creates a backend for script. An empty interpreter
// selects config.DefaultNeuralInterpreter.
func NewSubprocessBackend(interpreter, script string, opts ...SubprocessOption) *SubprocessBackend {
	if interpreter == "" {
		interpreter = config.DefaultNeuralInterpreter
	}
	b := &SubprocessBackend{
		interpreter: interpreter,
		script:      script,
		maxLength:   DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Name returns "subprocess".
func (b *SubprocessBackend) Name() string { return "subprocess" }

// LoadModel checks that the interpreter and the script exist.
func (b *SubprocessBackend) LoadModel(_ context.Context) error {
	if _, err := exec.LookPath(b.interpreter); err != nil {
		return fmt.Errorf("failed to find interpreter %q: %w", b.interpreter, err)
	}
	info, err := os.Stat(b.script)
	if err != nil {
		return fmt.Errorf("failed to stat inference script: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("inference script %s is a directory", b.script)
	}
	b.loaded.Store(true)
	return nil
}

type subprocessArgs struct {
	Count       int     `json:"count"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	MaxLength   int     `json:"max_length"`
}

type subprocessOutput struct {
	Passwords []string `json:"passwords"`
	Error     string   `json:"error,omitempty"`
}

// GenerateBatch runs the script once and returns the passwords it printed.
func (b *SubprocessBackend) GenerateBatch(ctx context.Context, count int, temperature float64, topK int) ([]string, error) {
	if !b.loaded.Load() {
		return nil, ErrModelNotLoaded
	}

	argsFile, err := os.CreateTemp("", "arcrack-neural-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create args file: %w", err)
	}
	defer func() {
		if err := os.Remove(argsFile.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Debug("failed to remove args file", "path", argsFile.Name(), "error", err)
		}
	}()

	enc := json.NewEncoder(argsFile)
	if err := enc.Encode(subprocessArgs{
		Count:       count,
		Temperature: temperature,
		TopK:        topK,
		MaxLength:   b.maxLength,
	}); err != nil {
		_ = argsFile.Close()
		return nil, fmt.Errorf("failed to write args file: %w", err)
	}
	if err := argsFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close args file: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.interpreter, b.script, "--args-file", argsFile.Name()) //nolint:gosec // interpreter and script come from user configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to run inference script: %w: %s", err, tail(stderr.String(), stderrTail))
	}

	var out subprocessOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse inference output: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("inference script failed: %s", out.Error)
	}
	if out.Passwords == nil {
		return nil, errors.New("inference output has no passwords field")
	}
	return out.Passwords, nil
}

// Close marks the backend unloaded.
func (b *SubprocessBackend) Close() error {
	b.loaded.Store(false)
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
