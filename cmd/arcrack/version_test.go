package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestBuildInfoFallbacks tests that version helpers never return empty strings.
func TestBuildInfoFallbacks(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func() string{
		"version": getVersion,
		"commit":  getCommit,
		"date":    getDate,
	} {
		if fn() == "" {
			t.Errorf("%s returned an empty string", name)
		}
	}
}

// TestNewVersionCmd tests the version command output.
func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "full output",
			want: []string{"arcrack version", "commit:", "built:", "go:"},
		},
		{
			name:    "short output",
			args:    []string{"--short"},
			want:    []string{getVersion()},
			notWant: []string{"commit:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			cmd := NewVersionCmd()
			cmd.SetOut(&buf)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			output := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(output, w) {
					t.Errorf("expected output to contain %q, got %q", w, output)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(output, w) {
					t.Errorf("expected output not to contain %q", w)
				}
			}
		})
	}
}
