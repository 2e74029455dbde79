package model

import (
	"fmt"
	"strings"
)

// Priority selects the order and budget of attack modes for a job.
type Priority string

const (
	// PrioritySpeed tries cheap, context-driven candidates first and keeps
	// every mode small.
	PrioritySpeed Priority = "speed"

	// PriorityBalanced is the default policy.
	PriorityBalanced Priority = "balanced"

	// PriorityThorough favours broad enumeration and raises every mode's budget.
	PriorityThorough Priority = "thorough"
)

// Priorities lists every supported policy in display order.
func Priorities() []Priority {
	return []Priority{PrioritySpeed, PriorityBalanced, PriorityThorough}
}

// String returns the policy name.
func (p Priority) String() string {
	return string(p)
}

// ParsePriority converts a policy name to a Priority.
// An empty string yields PriorityBalanced.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriorityBalanced:
		return PriorityBalanced, nil
	case PrioritySpeed:
		return PrioritySpeed, nil
	case PriorityThorough:
		return PriorityThorough, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
	}
}
