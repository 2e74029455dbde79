package model

import "errors"

var (
	// ErrUnknownStatus is returned when a session status string is not recognized.
	ErrUnknownStatus = errors.New("unknown session status")

	// ErrUnknownPriority is returned when a priority policy name is not recognized.
	ErrUnknownPriority = errors.New("unknown priority policy: use speed, balanced or thorough")
)
