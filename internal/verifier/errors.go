package verifier

import "errors"

var (
	// ErrNoOracle is returned when a verifier or exec oracle is built
	// without anything to run.
	ErrNoOracle = errors.New("no archive test oracle configured")

	// ErrMissingPlaceholder is returned when an oracle command template
	// never references the password placeholder.
	ErrMissingPlaceholder = errors.New("oracle command must contain the {password} placeholder")
)
