package neural

import "errors"

var (
	// ErrNoBackend is returned by Discover when neither a graph model nor
	// an inference script is usable.
	ErrNoBackend = errors.New("no neural backend available")

	// ErrModelNotLoaded is returned when a backend generates before LoadModel succeeded.
	ErrModelNotLoaded = errors.New("neural model not loaded")

	// ErrInvalidModel is returned when a graph model file is malformed.
	ErrInvalidModel = errors.New("invalid neural graph model")

	// ErrStalled is returned when the backend keeps producing nothing new.
	ErrStalled = errors.New("neural backend stopped producing new candidates")
)
