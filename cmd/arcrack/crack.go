package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/arcrack/internal/config"
	"github.com/nao1215/arcrack/internal/contexthint"
	"github.com/nao1215/arcrack/internal/metrics"
	"github.com/nao1215/arcrack/internal/model"
	"github.com/nao1215/arcrack/internal/orchestrator"
	"github.com/nao1215/arcrack/internal/report"
	"github.com/nao1215/arcrack/internal/session"
	"github.com/nao1215/arcrack/internal/stats"
	"github.com/nao1215/arcrack/internal/verifier"
)

// errPasswordNotFound is returned when every mode ran without success.
var errPasswordNotFound = errors.New("password not found")

// NewCrackCmd creates the crack command.
func NewCrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crack <archive>",
		Short: "Recover the password of an encrypted archive",
		Long: `Crack runs the attack modes against an archive until one candidate opens it.

Every candidate is checked with the oracle command, which must exit with
status 0 only for the right password. The default oracle is 7-Zip:

  7z t -p{password} -y {archive}

The job is stored as a session. Interrupting it with Ctrl+C pauses the
session; run the same command with --resume to continue where it stopped.

Examples:
  # Recover with the default balanced policy
  arcrack crack backup.zip

  # Add context and try cheap candidates first
  arcrack crack --priority speed -k fluffy -k 2019 --hint IMG_0001.jpg backup.zip

  # Use unrar instead of 7z and write a Markdown report
  arcrack crack --oracle "unrar t -p{password} {archive}" -m -o report.md photos.rar

  # Continue an interrupted job
  arcrack crack --resume backup.zip`,
		Args: cobra.ExactArgs(1),
		RunE: runCrackCmd,
	}

	// Search flags
	cmd.Flags().StringP("priority", "P", string(model.PriorityBalanced),
		"Attack policy: speed, balanced or thorough")
	cmd.Flags().Int("min-length", config.DefaultMinLength, "Minimum dictionary candidate length")
	cmd.Flags().Int("max-length", config.DefaultMaxLength, "Maximum dictionary candidate length (up to 20)")
	cmd.Flags().Int("max-per-mode", config.DefaultMaxCandidatesPerMode,
		"Base candidate cap of every attack mode")
	cmd.Flags().StringP("dictionary", "w", "", "Word list appended to the built-in dictionary")

	// Context flags
	cmd.Flags().StringSliceP("keyword", "k", nil, "Context keyword (repeatable)")
	cmd.Flags().StringSlice("hint", nil, "Image whose EXIF metadata hints at the password (repeatable)")
	cmd.Flags().Bool("scan-siblings", false, "Read EXIF metadata of images next to the archive")

	// Oracle flags
	cmd.Flags().String("oracle", "", "Archive test command with {password} and {archive} placeholders")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of candidates checked concurrently")
	cmd.Flags().Duration("oracle-timeout", config.DefaultOracleTimeout, "Time limit of one oracle run")
	cmd.Flags().Float64("oracle-rate", 0, "Maximum oracle starts per second (0 = unlimited)")

	// Neural flags
	cmd.Flags().String("model", "", "Transition graph file for the neural generator")
	cmd.Flags().String("neural-script", "", "Generator script for the subprocess neural backend")
	cmd.Flags().Int("neural-budget", config.DefaultNeuralBudget, "Neural candidates drawn per run")
	cmd.Flags().Bool("no-neural", false, "Disable the neural generator")

	// Session flags
	cmd.Flags().BoolP("resume", "r", false, "Resume the pending session of this archive")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .arcrack in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().Bool("show-password", false, "Print the recovered password in clear text")

	return cmd
}

// runCrackCmd executes the crack command.
func runCrackCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrack(ctx, cfg, logger, streams{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()})
}

// streams are the writers of the crack command: reports go to out, status
// lines and the progress bar to err.
type streams struct {
	out io.Writer
	err io.Writer
}

// buildConfig creates a Config from cobra command flags and the
// configuration file. Flags given explicitly win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.ArchivePath = args[0]
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = getDBDir(cmd)
	cfg.FlagChanged = flags.Changed

	priority, err := flags.GetString("priority")
	if err != nil {
		return nil, err
	}
	if cfg.Priority, err = model.ParsePriority(priority); err != nil {
		return nil, err
	}
	if cfg.MinLength, err = flags.GetInt("min-length"); err != nil {
		return nil, err
	}
	if cfg.MaxLength, err = flags.GetInt("max-length"); err != nil {
		return nil, err
	}
	if cfg.MaxCandidatesPerMode, err = flags.GetInt("max-per-mode"); err != nil {
		return nil, err
	}
	if cfg.DictionaryPath, err = flags.GetString("dictionary"); err != nil {
		return nil, err
	}
	if cfg.Keywords, err = flags.GetStringSlice("keyword"); err != nil {
		return nil, err
	}
	if cfg.HintImages, err = flags.GetStringSlice("hint"); err != nil {
		return nil, err
	}
	if cfg.ScanSiblings, err = flags.GetBool("scan-siblings"); err != nil {
		return nil, err
	}

	oracle, err := flags.GetString("oracle")
	if err != nil {
		return nil, err
	}
	if oracle != "" {
		if cfg.OracleCommand, err = splitCommand(oracle); err != nil {
			return nil, err
		}
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.OracleTimeout, err = flags.GetDuration("oracle-timeout"); err != nil {
		return nil, err
	}
	if cfg.OracleRate, err = flags.GetFloat64("oracle-rate"); err != nil {
		return nil, err
	}

	if cfg.NeuralModelPath, err = flags.GetString("model"); err != nil {
		return nil, err
	}
	if cfg.NeuralScript, err = flags.GetString("neural-script"); err != nil {
		return nil, err
	}
	if cfg.NeuralBudget, err = flags.GetInt("neural-budget"); err != nil {
		return nil, err
	}
	noNeural, err := flags.GetBool("no-neural")
	if err != nil {
		return nil, err
	}
	cfg.NeuralEnabled = !noNeural

	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}
	if cfg.ShowPassword, err = flags.GetBool("show-password"); err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise silently continue without one.
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.ArchiveConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyArchiveConfig(cfg.ArchiveConfigs.ArchiveConfig(cfg.ArchivePath), cfg.FlagChanged)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runCrack executes one recovery job.
func runCrack(ctx context.Context, cfg *config.Config, logger *slog.Logger, ui streams) error {
	if err := archiveExists(cfg.ArchivePath); err != nil {
		return err
	}
	if abs, err := filepath.Abs(cfg.ArchivePath); err == nil {
		cfg.ArchivePath = abs
	}
	runID := uuid.NewString()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg.DBDir, logger, m)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, resumed, err := startSession(ctx, a.sessions, cfg)
	if err != nil {
		return err
	}
	if resumed {
		color.New(color.FgCyan).Fprintf(ui.err, "Resuming session %s (%d candidates tested, %d phases done)\n",
			sess.ID, sess.TestedCount, len(sess.PhaseHistory))
	}
	saveCtx := context.WithoutCancel(ctx)

	gc, err := contexthint.Build(ctx, cfg.ArchivePath, contexthint.Options{
		Keywords:     cfg.Keywords,
		Hints:        cfg.HintImages,
		ScanSiblings: cfg.ScanSiblings,
		MaxSiblings:  config.DefaultSiblingLimit,
		Logger:       logger,
	})
	if err != nil {
		return failSession(saveCtx, a, sess.ID, fmt.Errorf("failed to build archive context: %w", err))
	}

	modes, err := buildModes(ctx, cfg, a.patterns, logger, m)
	if err != nil {
		return failSession(saveCtx, a, sess.ID, err)
	}
	defer modes.Close()

	oracle, err := verifier.NewExecOracle(cfg.OracleCommand, cfg.ArchivePath,
		verifier.WithTimeout(cfg.OracleTimeout),
		verifier.WithExecLogger(logger),
		verifier.WithExecMetrics(m),
	)
	if err != nil {
		return failSession(saveCtx, a, sess.ID, err)
	}
	bv, err := verifier.New(oracle,
		verifier.WithBatchSize(cfg.BatchSize),
		verifier.WithRateLimit(cfg.OracleRate),
		verifier.WithLogger(logger),
		verifier.WithMetrics(m),
	)
	if err != nil {
		return failSession(saveCtx, a, sess.ID, err)
	}

	collector := stats.NewCollector(sess.ID)
	if resumed {
		collector.UpdateProgress(sess.TestedCount, 0)
	}

	completed := make([]string, 0, len(sess.PhaseHistory))
	for _, p := range sess.PhaseHistory {
		completed = append(completed, p.Name)
	}

	progress := make(chan model.ProgressEvent, 16)
	orch, err := orchestrator.New(modes.modes,
		orchestrator.WithPriority(cfg.Priority),
		orchestrator.WithMaxCandidatesPerMode(cfg.MaxCandidatesPerMode),
		orchestrator.WithChunkSize(cfg.BatchSize),
		orchestrator.WithSkipModes(completed...),
		orchestrator.WithRunID(runID),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(m),
		orchestrator.WithCollector(collector),
		orchestrator.WithProgress(progress),
		orchestrator.WithModeHook(func(res model.ModeResult) {
			recordPhase(ctx, saveCtx, a, sess.ID, collector, res)
		}),
	)
	if err != nil {
		return failSession(saveCtx, a, sess.ID, err)
	}

	fmt.Fprintf(ui.err, "Recovering %s (priority %s, modes %v)\n", gc.FileName, cfg.Priority, orch.ExecutionOrder())

	bgCtx, stopBackground := context.WithCancel(ctx)
	var bg errgroup.Group
	bg.Go(func() error { return a.patterns.Run(bgCtx) })
	bg.Go(func() error {
		renderProgress(newProgressBar(ui.err), progress)
		return nil
	})

	started := time.Now()
	result, runErr := orch.Run(ctx, gc, bv)
	finished := time.Now()

	close(progress)
	stopBackground()
	if err := bg.Wait(); err != nil {
		logger.Warn("background task failed", "error", err)
	}

	secret := sealPassword(&result)
	learned := 0
	switch {
	case result.Success:
		err = withPassword(secret, func(pw string) error {
			n, err := a.patterns.LearnFromSuccess(saveCtx, pw, gc)
			if err != nil {
				logger.Warn("failed to learn from the recovered password", "error", err)
			}
			learned = n
			_, err = a.sessions.Complete(saveCtx, sess.ID, true, pw)
			return err
		})
	case orchestrator.IsCancelled(runErr):
		_, err = a.sessions.Pause(saveCtx, sess.ID)
	case runErr != nil:
		_, err = a.sessions.Fail(saveCtx, sess.ID)
	default:
		_, err = a.sessions.Complete(saveCtx, sess.ID, false, "")
	}
	if err != nil {
		logger.Error("failed to update session", "id", sess.ID, "error", err)
	}

	snapshot := collector.Stats()
	jobReport := &model.JobReport{
		RunID:           runID,
		SessionID:       sess.ID,
		Archive:         cfg.ArchivePath,
		ArchiveSize:     gc.FileSize,
		Priority:        cfg.Priority,
		Started:         started,
		Finished:        finished,
		Result:          result,
		Phases:          collector.Phases(),
		AverageSpeed:    snapshot.AverageSpeed,
		PeakSpeed:       snapshot.PeakSpeed,
		LearnedPatterns: learned,
		RevealPassword:  cfg.ShowPassword,
	}
	if err := withPassword(secret, func(pw string) error {
		jobReport.Result.Password = pw
		defer func() { jobReport.Result.Password = "" }()

		printStatus(ui.err, jobReport)
		return outputReport(cfg, jobReport, ui.out)
	}); err != nil {
		logger.Error("report failed", "error", err)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.MetricsFile, reg); err != nil {
			logger.Error("failed to write metrics", "error", err)
		}
	}
	logger.Debug("mode statistics", "statistics", orch.Statistics())

	switch {
	case result.Success:
		return nil
	case orchestrator.IsCancelled(runErr):
		return fmt.Errorf("recovery interrupted, session %s paused (resume with --resume): %w", sess.ID, runErr)
	case runErr != nil:
		return runErr
	default:
		return errPasswordNotFound
	}
}

// startSession creates the session of the job, or resumes the pending
// one when --resume is given. A resumed job takes its settings from the
// session unless a flag overrides them; the effective settings are stored
// back. It reports whether a session was resumed.
func startSession(ctx context.Context, mgr *session.Manager, cfg *config.Config) (*model.Session, bool, error) {
	pending, err := mgr.FindPendingForFile(ctx, cfg.ArchivePath)
	if err != nil {
		return nil, false, err
	}
	if pending != nil {
		if !cfg.Resume {
			return nil, false, fmt.Errorf("%w: %s (%s); rerun with --resume or remove it with 'arcrack sessions delete %s'",
				session.ErrSessionActive, pending.ID, pending.Status, pending.ID)
		}
		cfg.ApplySessionOptions(pending.Options, cfg.FlagChanged)
		if err := cfg.Validate(); err != nil {
			return nil, false, fmt.Errorf("invalid settings for session %s: %w", pending.ID, err)
		}
		if _, err := mgr.Resume(ctx, pending.ID); err != nil {
			return nil, false, err
		}
		s, err := mgr.Update(ctx, pending.ID, func(s *model.Session) error {
			s.Options = cfg.SessionOptions()
			return nil
		})
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	}

	s, err := mgr.Create(ctx, cfg.ArchivePath, cfg.SessionOptions())
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// recordPhase stores the progress of a finished mode in the session. A
// mode cut short by cancellation is not recorded as completed, so a
// resumed job runs it again.
func recordPhase(runCtx, saveCtx context.Context, a *app, id string, collector *stats.Collector, res model.ModeResult) {
	interrupted := runCtx.Err() != nil && !res.Success
	_, err := a.sessions.Update(saveCtx, id, func(s *model.Session) error {
		s.CurrentPhase = res.Mode
		s.TestedCount += int64(res.CandidatesTested)
		if interrupted {
			return nil
		}
		if phases := collector.Phases(); len(phases) > 0 {
			s.PhaseHistory = append(s.PhaseHistory, phases[len(phases)-1])
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("failed to save session progress", "id", id, "mode", res.Mode, "error", err)
	}
}

// failSession marks the session failed and returns cause.
func failSession(ctx context.Context, a *app, id string, cause error) error {
	if _, err := a.sessions.Fail(ctx, id); err != nil {
		a.logger.Warn("failed to mark session failed", "id", id, "error", err)
	}
	return cause
}

// sealPassword moves the recovered password out of result into an
// enclave. It returns nil when nothing was found.
func sealPassword(result *model.RunResult) *memguard.Enclave {
	if !result.Success || result.Password == "" {
		return nil
	}
	secret := memguard.NewEnclave([]byte(result.Password))
	result.Password = ""
	for i := range result.ModeResults {
		result.ModeResults[i].Password = ""
	}
	return secret
}

// withPassword opens the enclave for the duration of fn. A nil enclave
// yields an empty password.
func withPassword(secret *memguard.Enclave, fn func(pw string) error) error {
	if secret == nil {
		return fn("")
	}
	buf, err := secret.Open()
	if err != nil {
		return fmt.Errorf("failed to open password enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.String())
}

// newProgressBar creates a spinner that shows the tested count and speed.
func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// renderProgress feeds progress events into bar until events is closed.
func renderProgress(bar *progressbar.ProgressBar, events <-chan model.ProgressEvent) {
	for ev := range events {
		bar.Describe(fmt.Sprintf("%-10s %s", ev.Phase, stats.FormatSpeed(ev.Speed)))
		_ = bar.Set64(ev.Tested) //nolint:errcheck // display only
	}
	_ = bar.Finish() //nolint:errcheck // display only
}

// printStatus prints a one-line colored outcome.
func printStatus(w io.Writer, r *model.JobReport) {
	elapsed := r.Elapsed().Round(time.Millisecond)
	switch {
	case r.Result.Success:
		color.New(color.FgGreen, color.Bold).Fprintf(w, "[+] Password found: %s (mode %s, %d candidates, %s)\n",
			r.DisplayPassword(), r.Result.SuccessfulMode, r.Result.TotalCandidatesTested, elapsed)
	case r.Result.Cancelled:
		color.New(color.FgYellow).Fprintf(w, "[!] Interrupted after %d candidates (%s); session %s paused\n",
			r.Result.TotalCandidatesTested, elapsed, r.SessionID)
	default:
		color.New(color.FgRed).Fprintf(w, "[-] Password not found after %d candidates (%s)\n",
			r.Result.TotalCandidatesTested, elapsed)
	}
}

// outputReport writes the job report in the requested format. With
// cfg.ReportFile the formatted report goes to the file and a plain summary
// to out; otherwise the formatted report goes to out.
func outputReport(cfg *config.Config, jobReport *model.JobReport, out io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := formatWriter(cfg, out).Write(jobReport)
		return err
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	// Reports may name the recovered password, so only the owner may read them.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(formatWriter(cfg, f), report.NewSimpleWriter(out))
	_, err = w.Write(jobReport)
	return err
}

// formatWriter returns the report writer selected by the format flags.
func formatWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
