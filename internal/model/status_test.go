package model

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestParseSessionStatus tests parsing of status names.
func TestParseSessionStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected SessionStatus
		wantErr  bool
	}{
		{"running", StatusRunning, false},
		{"PAUSED", StatusPaused, false},
		{" completed ", StatusCompleted, false},
		{"failed", StatusFailed, false},
		{"", "", true},
		{"cancelled", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSessionStatus(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownStatus) {
					t.Errorf("expected ErrUnknownStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestSessionStatusLifecycle tests the terminal and pending predicates.
func TestSessionStatusLifecycle(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   SessionStatus
		terminal bool
		pending  bool
	}{
		{StatusRunning, false, true},
		{StatusPaused, false, true},
		{StatusCompleted, true, false},
		{StatusFailed, true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.status.String(), func(t *testing.T) {
			t.Parallel()
			if tc.status.IsTerminal() != tc.terminal {
				t.Errorf("IsTerminal() = %v, expected %v", tc.status.IsTerminal(), tc.terminal)
			}
			if tc.status.IsPending() != tc.pending {
				t.Errorf("IsPending() = %v, expected %v", tc.status.IsPending(), tc.pending)
			}
		})
	}
}

// TestSessionStatusUnmarshal tests that stored records reject unknown statuses.
func TestSessionStatusUnmarshal(t *testing.T) {
	t.Parallel()

	var s Session
	if err := json.Unmarshal([]byte(`{"id":"x","status":"Paused"}`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != StatusPaused {
		t.Errorf("expected paused, got %q", s.Status)
	}

	if err := json.Unmarshal([]byte(`{"id":"x","status":"exploded"}`), &s); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}
}

// TestParsePriority tests parsing of priority policies.
func TestParsePriority(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected Priority
		wantErr  bool
	}{
		{"empty defaults to balanced", "", PriorityBalanced, false},
		{"speed", "speed", PrioritySpeed, false},
		{"mixed case", "Thorough", PriorityThorough, false},
		{"balanced", "balanced", PriorityBalanced, false},
		{"unknown", "fastest", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePriority(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParsePriority(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if tc.wantErr && !errors.Is(err, ErrUnknownPriority) {
				t.Errorf("expected ErrUnknownPriority, got %v", err)
			}
			if got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}

	if len(Priorities()) != 3 {
		t.Errorf("expected 3 priorities, got %d", len(Priorities()))
	}
}
