package orchestrator

import "errors"

var (
	// ErrNoModes is returned by New when no attack mode is given.
	ErrNoModes = errors.New("no attack modes enabled")

	// ErrDuplicateMode is returned by New when two modes share a name.
	ErrDuplicateMode = errors.New("duplicate attack mode")

	// ErrNoTester is returned by Run when the tester is nil.
	ErrNoTester = errors.New("no password tester")
)
