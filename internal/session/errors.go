package session

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for an id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionActive is returned by Create when a running or paused
	// session already exists for the archive.
	ErrSessionActive = errors.New("a pending session already exists for this archive")

	// ErrInvalidTransition is returned when a status change is not allowed,
	// for example resuming a completed session.
	ErrInvalidTransition = errors.New("invalid session status transition")
)
