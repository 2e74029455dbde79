package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoArchive is returned when no archive path is given.
	ErrNoArchive = errors.New("no archive specified: provide the path of the archive to recover")

	// ErrInvalidLengthRange is returned when the length bounds are not 1 <= min <= max <= 20.
	ErrInvalidLengthRange = errors.New("invalid length range: need 1 <= min-length <= max-length <= 20")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTimeout is returned when the oracle timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid oracle timeout: must be positive")

	// ErrEmptyOracle is returned when no oracle command is configured.
	ErrEmptyOracle = errors.New("empty oracle command")

	// ErrMissingPasswordPlaceholder is returned when no oracle argument contains {password}.
	ErrMissingPasswordPlaceholder = errors.New("oracle command must contain the {password} placeholder")

	// ErrInvalidOracleRate is returned when the oracle rate limit is negative.
	ErrInvalidOracleRate = errors.New("invalid oracle rate: must be non-negative")

	// ErrInvalidModeBudget is returned when the per-mode candidate cap is not positive.
	ErrInvalidModeBudget = errors.New("invalid candidates per mode: must be positive")

	// ErrInvalidNeuralBudget is returned when the neural generator is enabled
	// with a non-positive budget or worker count.
	ErrInvalidNeuralBudget = errors.New("invalid neural settings: budget and workers must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
