package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// TestGenerateCmd tests printing the candidates of one mode.
func TestGenerateCmd(t *testing.T) {
	t.Parallel()

	t.Run("social mode from archive name", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		archive := filepath.Join(dir, "garden.zip")
		if err := os.WriteFile(archive, []byte("PK"), 0600); err != nil {
			t.Fatal(err)
		}

		out, _, err := executeRoot(t, "generate", "social", archive, "-n", "5", "--db-dir", filepath.Join(dir, "db"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) == 0 || len(lines) > 5 {
			t.Fatalf("expected 1 to 5 candidates, got %d: %q", len(lines), out)
		}
		if !slices.Contains(lines, "garden") {
			t.Errorf("expected the archive name as a candidate, got %v", lines)
		}
	})

	t.Run("keywords without archive", func(t *testing.T) {
		t.Parallel()

		out, _, err := executeRoot(t, "generate", "social", "-k", "rexford", "--limit", "10", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "rexford") {
			t.Errorf("expected keyword candidates, got %q", out)
		}
	})

	t.Run("keyboard mode", func(t *testing.T) {
		t.Parallel()

		out, _, err := executeRoot(t, "generate", "KEYBOARD", "-n", "3", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := len(strings.Split(strings.TrimSpace(out), "\n")); n != 3 {
			t.Errorf("expected 3 candidates, got %d: %q", n, out)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeRoot(t, "generate", "rainbow", "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "dictionary") {
			t.Errorf("expected an error listing the available modes, got %v", err)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()

		if _, _, err := executeRoot(t, "generate", "date", "-n", "0", "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error for a zero limit")
		}
	})
}
