package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/nao1215/arcrack/internal/config"
	"github.com/nao1215/arcrack/internal/metrics"
)

// Oracle answers whether one password opens the archive.
//
// Test returns (false, nil) for a wrong password. A non-nil error means the
// oracle could not give an answer; callers treat it as a rejection.
type Oracle interface {
	Test(ctx context.Context, password string) (bool, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, password string) (bool, error)

// Test calls f.
func (f OracleFunc) Test(ctx context.Context, password string) (bool, error) {
	return f(ctx, password)
}

// ExecOracle runs an external command once per password.
// Exit status 0 means the password is correct.
type ExecOracle struct {
	command []string
	archive string
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ExecOption configures an ExecOracle.
type ExecOption func(*ExecOracle)

// WithTimeout sets the hard limit of one invocation.
func WithTimeout(d time.Duration) ExecOption {
	return func(o *ExecOracle) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithExecLogger sets the logger of the oracle.
func WithExecLogger(logger *slog.Logger) ExecOption {
	return func(o *ExecOracle) {
		o.logger = logger
	}
}

// WithExecMetrics records invocation latency by outcome.
func WithExecMetrics(m *metrics.Metrics) ExecOption {
	return func(o *ExecOracle) {
		o.metrics = m
	}
}

// NewExecOracle creates an oracle from a command template. Every argument
// may contain the {password} and {archive} placeholders; at least one must
// contain {password}.
func NewExecOracle(command []string, archive string, opts ...ExecOption) (*ExecOracle, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrNoOracle
	}
	found := false
	for _, arg := range command {
		if strings.Contains(arg, config.PasswordPlaceholder) {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrMissingPlaceholder
	}

	o := &ExecOracle{
		command: append([]string(nil), command...),
		archive: archive,
		timeout: config.DefaultOracleTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// Check reports whether the oracle executable can be found.
func (o *ExecOracle) Check() error {
	if _, err := exec.LookPath(o.command[0]); err != nil {
		return fmt.Errorf("failed to find oracle executable %q: %w", o.command[0], err)
	}
	return nil
}

// Args returns the argv for one password.
func (o *ExecOracle) Args(password string) []string {
	r := strings.NewReplacer(
		config.PasswordPlaceholder, password,
		config.ArchivePlaceholder, o.archive,
	)
	args := make([]string, len(o.command))
	for i, arg := range o.command {
		args[i] = r.Replace(arg)
	}
	return args
}

// Test runs the oracle for one password. The process is killed when the
// timeout expires or ctx is cancelled. A timeout is reported as (false, nil);
// cancellation of ctx is reported as ctx.Err().
func (o *ExecOracle) Test(ctx context.Context, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	args := o.Args(password)
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...) //nolint:gosec // user-configured oracle
	cmd.WaitDelay = 100 * time.Millisecond

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	switch {
	case err == nil:
		o.metrics.ObserveOracle(metrics.OutcomeAccepted, elapsed)
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		o.metrics.ObserveOracle(metrics.OutcomeTimeout, elapsed)
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		o.metrics.ObserveOracle(metrics.OutcomeRejected, elapsed)
		return false, nil
	}

	o.metrics.ObserveOracle(metrics.OutcomeError, elapsed)
	return false, fmt.Errorf("failed to run oracle: %w", err)
}
