package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/arcrack/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "arcrack"

	// DefaultMinLength is the shortest candidate tried by the dictionary phases.
	// Single characters are cheap to test and occasionally used.
	DefaultMinLength = 1

	// DefaultMaxLength is the longest candidate tried by the dictionary phases.
	// Generators with their own bounds (date, keyboard, contextual) still clamp
	// to at most 20 characters.
	DefaultMaxLength = 16

	// DefaultBatchSize is the number of oracle processes started per batch.
	// Each oracle is a short-lived process, so the batch size is also the
	// peak process count.
	DefaultBatchSize = 100

	// DefaultOracleTimeout is the hard limit for one oracle invocation.
	// An oracle that has not answered by then is killed and the candidate
	// counts as rejected.
	DefaultOracleTimeout = 2 * time.Second

	// DefaultMaxCandidatesPerMode is the starting variant cap of every attack
	// mode before file-size and priority tuning.
	DefaultMaxCandidatesPerMode = 15000

	// DefaultNeuralBudget is the number of unique neural candidates drawn per run.
	// The neural stream is unbounded, so it needs an explicit budget.
	DefaultNeuralBudget = 10000

	// DefaultNeuralWorkers is the number of parallel backend loops.
	DefaultNeuralWorkers = 4

	// DefaultNeuralInterpreter runs the subprocess backend script.
	DefaultNeuralInterpreter = "python3"

	// DefaultSiblingLimit caps how many images next to the archive are
	// inspected for EXIF hints.
	DefaultSiblingLimit = 20

	// DefaultSessionRetention is how long terminal sessions are kept.
	DefaultSessionRetention = 30 * 24 * time.Hour

	// PasswordPlaceholder and ArchivePlaceholder are substituted into the
	// oracle command template.
	PasswordPlaceholder = "{password}"
	ArchivePlaceholder  = "{archive}"
)

// DefaultOracleCommand tests one password against an archive with 7-Zip.
// 7z exits with status 0 only when the password is correct.
func DefaultOracleCommand() []string {
	return []string{"7z", "t", "-p" + PasswordPlaceholder, "-y", ArchivePlaceholder}
}

// Config holds all options of one recovery job.
// It is populated from CLI flags and the configuration file and passed to
// the components explicitly.
type Config struct {
	// ArchivePath is the archive to recover the password for.
	ArchivePath string

	// Priority selects the attack mode order and budgets.
	Priority model.Priority

	// MinLength and MaxLength bound candidate length for the dictionary phases.
	MinLength int
	MaxLength int

	// BatchSize is the number of candidates verified concurrently.
	BatchSize int

	// OracleCommand is the archive test command. Arguments may contain
	// {password} and {archive}; {password} must appear at least once.
	OracleCommand []string

	// OracleTimeout is the per-candidate oracle time limit.
	OracleTimeout time.Duration

	// OracleRate limits oracle process starts per second. Zero disables the limit.
	OracleRate float64

	// MaxCandidatesPerMode is the base variant cap of every attack mode.
	MaxCandidatesPerMode int

	// Keywords are extra context tokens for the contextual mode.
	Keywords []string

	// HintImages are image files whose EXIF metadata feeds the generation context.
	HintImages []string

	// ScanSiblings enables EXIF scanning of images stored next to the archive.
	ScanSiblings bool

	// DictionaryPath is an optional word list appended to the built-in dictionary.
	DictionaryPath string

	// NeuralEnabled adds the neural generator to the run.
	NeuralEnabled bool

	// NeuralModelPath is a compiled transition graph for the in-process backend.
	NeuralModelPath string

	// NeuralScript is a generator script for the subprocess backend.
	NeuralScript string

	// NeuralInterpreter runs NeuralScript.
	NeuralInterpreter string

	// NeuralBudget is the number of neural candidates drawn per run.
	NeuralBudget int

	// NeuralWorkers is the number of parallel backend loops.
	NeuralWorkers int

	// Resume continues a pending session for the archive instead of refusing to start.
	Resume bool

	// DBDir is the directory of the SQLite database holding sessions and patterns.
	// Defaults to the XDG data directory (~/.local/share/arcrack on Linux).
	DBDir string

	// FlagChanged reports whether a command-line flag was set explicitly.
	// Nil means no flag was.
	FlagChanged func(flag string) bool

	// ConfigFilePath is the configuration file given with --config.
	// If empty, .arcrack is searched in the current and home directories.
	ConfigFilePath string

	// ArchiveConfigs holds the parsed configuration file.
	ArchiveConfigs *File

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the report destination. Empty means no report file.
	ReportFile string

	// MetricsFile receives the Prometheus text exposition after the run.
	MetricsFile string

	// ShowPassword prints the recovered password in clear text.
	ShowPassword bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Priority:             model.PriorityBalanced,
		MinLength:            DefaultMinLength,
		MaxLength:            DefaultMaxLength,
		BatchSize:            DefaultBatchSize,
		OracleCommand:        DefaultOracleCommand(),
		OracleTimeout:        DefaultOracleTimeout,
		MaxCandidatesPerMode: DefaultMaxCandidatesPerMode,
		NeuralInterpreter:    DefaultNeuralInterpreter,
		NeuralBudget:         DefaultNeuralBudget,
		NeuralWorkers:        DefaultNeuralWorkers,
		DBDir:                XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for arcrack.
// On Linux: ~/.local/share/arcrack
// On macOS: ~/Library/Application Support/arcrack
// On Windows: %LOCALAPPDATA%\arcrack
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for arcrack.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for arcrack.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.ArchivePath == "" {
		return ErrNoArchive
	}

	if c.MinLength < 1 || c.MaxLength < c.MinLength || c.MaxLength > 20 {
		return ErrInvalidLengthRange
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.OracleTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if len(c.OracleCommand) == 0 || c.OracleCommand[0] == "" {
		return ErrEmptyOracle
	}
	if !c.hasPasswordPlaceholder() {
		return ErrMissingPasswordPlaceholder
	}

	if c.OracleRate < 0 {
		return ErrInvalidOracleRate
	}

	if c.MaxCandidatesPerMode <= 0 {
		return ErrInvalidModeBudget
	}

	if c.NeuralEnabled && (c.NeuralBudget <= 0 || c.NeuralWorkers <= 0) {
		return ErrInvalidNeuralBudget
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

func (c *Config) hasPasswordPlaceholder() bool {
	for _, arg := range c.OracleCommand[1:] {
		if strings.Contains(arg, PasswordPlaceholder) {
			return true
		}
	}
	return false
}

// ApplyArchiveConfig copies non-zero values of ac into c.
// Values whose flag was set explicitly on the command line are kept;
// changed reports whether a flag was given and may be nil.
func (c *Config) ApplyArchiveConfig(ac ArchiveConfig, changed func(flag string) bool) {
	explicit := func(flag string) bool {
		return changed != nil && changed(flag)
	}

	if ac.Priority != "" && !explicit("priority") {
		if p, err := model.ParsePriority(ac.Priority); err == nil {
			c.Priority = p
		}
	}
	if ac.MinLength > 0 && !explicit("min-length") {
		c.MinLength = ac.MinLength
	}
	if ac.MaxLength > 0 && !explicit("max-length") {
		c.MaxLength = ac.MaxLength
	}
	if len(ac.Keywords) > 0 {
		c.Keywords = appendUnique(c.Keywords, ac.Keywords...)
	}
	if len(ac.Hints) > 0 {
		c.HintImages = appendUnique(c.HintImages, ac.Hints...)
	}
	if ac.Dictionary != "" && !explicit("dictionary") {
		c.DictionaryPath = ac.Dictionary
	}
	if len(ac.Oracle) > 0 && !explicit("oracle") {
		c.OracleCommand = append([]string(nil), ac.Oracle...)
	}
	if ac.BatchSize > 0 && !explicit("batch") {
		c.BatchSize = ac.BatchSize
	}
	if ac.Model != "" && !explicit("model") {
		c.NeuralModelPath = ac.Model
	}
}

// ApplySessionOptions restores the settings stored with a resumed session.
// Values whose flag was set explicitly on the command line are kept, as
// with ApplyArchiveConfig.
func (c *Config) ApplySessionOptions(opts model.SessionOptions, changed func(flag string) bool) {
	explicit := func(flag string) bool {
		return changed != nil && changed(flag)
	}

	if opts.Priority != "" && !explicit("priority") {
		c.Priority = opts.Priority
	}
	if opts.MinLength > 0 && !explicit("min-length") {
		c.MinLength = opts.MinLength
	}
	if opts.MaxLength > 0 && !explicit("max-length") {
		c.MaxLength = opts.MaxLength
	}
	if opts.DictionaryPath != "" && !explicit("dictionary") {
		c.DictionaryPath = opts.DictionaryPath
	}
	if len(opts.Keywords) > 0 && !explicit("keyword") {
		c.Keywords = append([]string(nil), opts.Keywords...)
	}
	if !explicit("no-neural") {
		c.NeuralEnabled = opts.NeuralEnabled
	}
}

// SessionOptions returns the settings stored with a new session.
func (c *Config) SessionOptions() model.SessionOptions {
	return model.SessionOptions{
		Priority:       c.Priority,
		MinLength:      c.MinLength,
		MaxLength:      c.MaxLength,
		DictionaryPath: c.DictionaryPath,
		Keywords:       append([]string(nil), c.Keywords...),
		NeuralEnabled:  c.NeuralEnabled,
	}
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
