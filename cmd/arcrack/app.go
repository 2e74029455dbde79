package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/arcrack/internal/config"
	"github.com/nao1215/arcrack/internal/database"
	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/log"
	"github.com/nao1215/arcrack/internal/metrics"
	"github.com/nao1215/arcrack/internal/neural"
	"github.com/nao1215/arcrack/internal/pattern"
	"github.com/nao1215/arcrack/internal/session"
)

// app bundles the persistent state shared by the subcommands.
type app struct {
	db       *database.StateDB
	sessions *session.Manager
	patterns *pattern.Cache
	logger   *slog.Logger
}

// openApp opens the database in dbDir and loads the pattern cache.
func openApp(ctx context.Context, dbDir string, logger *slog.Logger, m *metrics.Metrics) (*app, error) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	cache := pattern.NewCache(pattern.DefaultOptions(),
		pattern.WithStore(db),
		pattern.WithLogger(logger),
		pattern.WithMetrics(m),
	)
	if err := cache.Load(ctx); err != nil {
		logger.Warn("starting with an empty pattern cache", "error", err)
	}

	return &app{
		db:       db,
		sessions: session.NewManager(db, session.WithLogger(logger)),
		patterns: cache,
		logger:   logger,
	}, nil
}

// Close closes the database.
func (a *app) Close() error {
	return a.db.Close()
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getDBDir retrieves the database directory from the command or its parent.
func getDBDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil || dir == "" {
		return config.XDGDataDir()
	}
	return dir
}

// setupLogger creates a structured logger that never prints passwords.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return log.NewSecureLogger(w, verbose)
}

// commandApp opens the app for a subcommand with a logger on stderr.
func commandApp(cmd *cobra.Command) (*app, error) {
	logger := setupLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	return openApp(cmd.Context(), getDBDir(cmd), logger, nil)
}

// modeSet is the attack modes of one job together with the resources
// that must be released after it.
type modeSet struct {
	modes   []generator.AttackMode
	backend neural.Backend
}

// Close releases the neural backend, if any.
func (s *modeSet) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// find returns the mode with the given name.
func (s *modeSet) find(name string) (generator.AttackMode, bool) {
	i := slices.IndexFunc(s.modes, func(m generator.AttackMode) bool { return m.Name() == name })
	if i < 0 {
		return nil, false
	}
	return s.modes[i], true
}

// names returns the mode names in construction order.
func (s *modeSet) names() []string {
	out := make([]string, len(s.modes))
	for i, m := range s.modes {
		out[i] = m.Name()
	}
	return out
}

// buildModes constructs every attack mode the configuration enables. A
// neural backend that cannot be loaded removes the neural mode with a
// warning instead of failing the job.
func buildModes(ctx context.Context, cfg *config.Config, cache *pattern.Cache, logger *slog.Logger, m *metrics.Metrics) (*modeSet, error) {
	dictOpts := generator.DefaultSmartOptions()
	dictOpts.MinLength = cfg.MinLength
	dictOpts.MaxLength = cfg.MaxLength
	if cfg.DictionaryPath != "" {
		words, err := generator.LoadWordList(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load dictionary: %w", err)
		}
		dictOpts.ExtraWords = words
		logger.Debug("dictionary loaded", "path", cfg.DictionaryPath, "words", len(words))
	}
	dictionary := generator.NewDictionaryMode(dictOpts, cfg.MaxCandidatesPerMode)

	set := &modeSet{modes: []generator.AttackMode{
		generator.NewContextualMode(generator.DefaultContextualOptions()),
		pattern.NewLearnedMode(cache, cfg.MaxCandidatesPerMode),
		generator.NewDateRangeMode(generator.DefaultDateRangeOptions()),
		generator.NewKeyboardWalkMode(generator.DefaultKeyboardOptions()),
		dictionary,
	}}

	if !cfg.NeuralEnabled {
		return set, nil
	}

	backend, err := neural.Discover(ctx, neural.DiscoverConfig{
		ModelPath:   cfg.NeuralModelPath,
		Script:      cfg.NeuralScript,
		Interpreter: cfg.NeuralInterpreter,
		Fallback:    generator.CommonPasswords(),
		MaxLength:   cfg.MaxLength,
	}, logger)
	if err != nil {
		logger.Warn("neural generator disabled", "error", err)
		return set, nil
	}
	logger.Info("neural backend loaded", "backend", backend.Name())

	gen := neural.NewStreamingGenerator(backend,
		neural.WithWorkers(cfg.NeuralWorkers),
		neural.WithLogger(logger),
		neural.WithMetrics(m),
	)
	set.backend = backend
	set.modes = append(set.modes, neural.NewMode(gen, cfg.NeuralBudget, logger))
	return set, nil
}

// splitCommand parses an oracle command given as one flag value.
// Arguments are separated by whitespace; single and double quotes group.
func splitCommand(s string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command %q", s)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// archiveExists reports an error when path is not a regular file.
func archiveExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("archive not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("archive path is a directory: %s", path)
	}
	return nil
}
