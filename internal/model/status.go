package model

import (
	"fmt"
	"strings"
)

// SessionStatus is the lifecycle state of a recovery session.
// The zero value is not a valid status.
type SessionStatus string

const (
	// StatusRunning marks a session whose job is in progress, or was in
	// progress when the process stopped without pausing it.
	StatusRunning SessionStatus = "running"

	// StatusPaused marks a session the user paused. It can be resumed.
	StatusPaused SessionStatus = "paused"

	// StatusCompleted marks a session whose search finished, with or
	// without a recovered password.
	StatusCompleted SessionStatus = "completed"

	// StatusFailed marks a session that stopped on an unrecoverable error.
	StatusFailed SessionStatus = "failed"
)

// String returns the status name.
func (s SessionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the session can no longer be resumed.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsPending reports whether the session may be resumed.
func (s SessionStatus) IsPending() bool {
	return s == StatusRunning || s == StatusPaused
}

// ParseSessionStatus converts a status name to a SessionStatus.
// Matching is case-insensitive.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusRunning:
		return StatusRunning, nil
	case StatusPaused:
		return StatusPaused, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so that stored records
// with an unexpected status are rejected instead of silently accepted.
func (s *SessionStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
