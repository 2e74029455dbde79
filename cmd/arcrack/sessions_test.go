package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/arcrack/internal/log"
	"github.com/nao1215/arcrack/internal/model"
	"github.com/nao1215/arcrack/internal/session"
)

// seedSessions creates one session per archive name in a fresh database
// and returns the database directory and the created sessions.
func seedSessions(t *testing.T, names ...string) (string, []*model.Session) {
	t.Helper()

	dir := t.TempDir()
	a, err := openApp(context.Background(), dir, log.NewSecureLogger(io.Discard, false), nil)
	if err != nil {
		t.Fatalf("failed to open app: %v", err)
	}
	defer a.Close()

	sessions := make([]*model.Session, 0, len(names))
	for _, name := range names {
		s, err := a.sessions.Create(context.Background(), filepath.Join(dir, name), model.SessionOptions{
			Priority: model.PriorityBalanced,
		})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		sessions = append(sessions, s)
	}
	return dir, sessions
}

// TestRenderSessions tests the session table.
func TestRenderSessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := []*model.Session{
		{
			ID:             "0123456789abcdef0123456789abcdef",
			FileName:       "backup.zip",
			Status:         model.StatusPaused,
			CurrentPhase:   "date",
			TestedCount:    12345,
			TotalCount:     100000,
			LastUpdateTime: now.Add(-2 * time.Hour),
		},
		{
			ID:             "short",
			FileName:       "photos.7z",
			Status:         model.StatusRunning,
			LastUpdateTime: now,
		},
	}

	var buf bytes.Buffer
	if err := renderSessions(&buf, sessions, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"0123456789ab", "backup.zip", "paused", "12,345", "12%", "2 hours ago", "photos.7z", "running"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("expected the id to be abbreviated")
	}
}

// TestShortID tests id abbreviation.
func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"0123456789abcdef", "0123456789ab"},
		{"0123456789ab", "0123456789ab"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortID(tt.in); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestResolveSessionID tests id prefix resolution.
func TestResolveSessionID(t *testing.T) {
	t.Parallel()

	dir, sessions := seedSessions(t, "a.zip", "b.zip")
	a, err := openApp(context.Background(), dir, log.NewSecureLogger(io.Discard, false), nil)
	if err != nil {
		t.Fatalf("failed to open app: %v", err)
	}
	defer a.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	t.Run("full id", func(t *testing.T) {
		got, err := resolveSessionID(cmd, a, sessions[0].ID)
		if err != nil || got != sessions[0].ID {
			t.Errorf("expected %s, got %s (%v)", sessions[0].ID, got, err)
		}
	})

	t.Run("unique prefix", func(t *testing.T) {
		id := sessions[1].ID
		prefix := id[:len(commonPrefix(id, sessions[0].ID))+1]
		got, err := resolveSessionID(cmd, a, strings.ToUpper(prefix))
		if err != nil || got != id {
			t.Errorf("expected %s, got %s (%v)", id, got, err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := resolveSessionID(cmd, a, "zz")
		if !errors.Is(err, session.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := resolveSessionID(cmd, a, " ")
		if !errors.Is(err, session.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		common := commonPrefix(sessions[0].ID, sessions[1].ID)
		if common == "" {
			t.Skip("seeded ids share no prefix")
		}
		_, err := resolveSessionID(cmd, a, common)
		if !errors.Is(err, errAmbiguousID) {
			t.Errorf("expected errAmbiguousID, got %v", err)
		}
	})
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

// TestSessionsCmd tests the sessions subcommands end to end.
func TestSessionsCmd(t *testing.T) {
	t.Parallel()

	t.Run("list empty", func(t *testing.T) {
		t.Parallel()

		out, _, err := executeRoot(t, "sessions", "list", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No sessions found") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("pause resume delete", func(t *testing.T) {
		t.Parallel()

		dir, sessions := seedSessions(t, "archive.zip")
		id := sessions[0].ID

		out, _, err := executeRoot(t, "sessions", "list", "--db-dir", dir)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, "archive.zip") || !strings.Contains(out, "running") {
			t.Errorf("expected running session in list:\n%s", out)
		}

		if out, _, err = executeRoot(t, "sessions", "pause", id[:8], "--db-dir", dir); err != nil {
			t.Fatalf("pause failed: %v", err)
		}
		if !strings.Contains(out, "paused") {
			t.Errorf("unexpected pause output %q", out)
		}

		if out, _, err = executeRoot(t, "sessions", "resume", id, "--db-dir", dir); err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		if !strings.Contains(out, "resumed") {
			t.Errorf("unexpected resume output %q", out)
		}

		if _, _, err = executeRoot(t, "sessions", "delete", id, "--db-dir", dir); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		out, _, err = executeRoot(t, "sessions", "list", "--all", "--db-dir", dir)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, "No sessions found") {
			t.Errorf("expected no sessions after delete:\n%s", out)
		}
	})

	t.Run("cleanup keeps pending sessions", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedSessions(t, "archive.zip")
		out, _, err := executeRoot(t, "sessions", "cleanup", "--older-than", "0s", "--db-dir", dir)
		if err != nil {
			t.Fatalf("cleanup failed: %v", err)
		}
		if !strings.Contains(out, "Removed 0 old sessions") {
			t.Errorf("unexpected cleanup output %q", out)
		}
	})
}
