package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/arcrack/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *StateDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func testSession(id, path string, status model.SessionStatus, updated time.Time) *model.Session {
	return &model.Session{
		ID:             id,
		FilePath:       path,
		FileName:       filepath.Base(path),
		CurrentPhase:   "date",
		TestedCount:    42,
		Status:         status,
		Options:        model.SessionOptions{Priority: model.PriorityBalanced, MinLength: 1, MaxLength: 16},
		StartTime:      updated.Add(-time.Minute),
		LastUpdateTime: updated,
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected informative error, got %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}

		ctx := context.Background()
		s := testSession("abc", "/tmp/a.zip", model.StatusPaused, time.Now().UTC())
		if err := db1.UpsertSession(ctx, s); err != nil {
			t.Fatalf("failed to insert session: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		got, err := db2.GetSession(ctx, "abc")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got == nil || got.Status != model.StatusPaused {
			t.Errorf("expected persisted paused session, got %+v", got)
		}
	})
}

// TestSessionRoundTrip tests that a stored session reads back unchanged.
func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	end := now.Add(time.Hour)
	s := testSession("5d41402abc4b2a76b9719d911017c592", "/tmp/a.zip", model.StatusCompleted, now)
	s.TotalCount = 1000
	s.EndTime = &end
	s.FoundPassword = "Summer2024!"
	s.PhaseHistory = []model.PhaseRecord{
		{Name: "learned", Start: now.Add(-time.Minute), End: now, Tested: 10, AvgSpeed: 0.5},
	}
	s.Options.Keywords = []string{"acme"}

	if err := db.UpsertSession(ctx, s); err != nil {
		t.Fatalf("UpsertSession failed: %v", err)
	}

	got, err := db.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
}

// TestUpsertSession tests overwrite semantics and validation.
func TestUpsertSession(t *testing.T) {
	t.Parallel()

	t.Run("overwrites existing record", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		s := testSession("id1", "/tmp/a.zip", model.StatusRunning, time.Now().UTC())
		if err := db.UpsertSession(ctx, s); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		s.Status = model.StatusPaused
		s.TestedCount = 99
		if err := db.UpsertSession(ctx, s); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		got, err := db.GetSession(ctx, "id1")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.Status != model.StatusPaused || got.TestedCount != 99 {
			t.Errorf("expected overwritten record, got %+v", got)
		}

		all, err := db.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 session, got %d", len(all))
		}
	})

	t.Run("rejects session without id", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.UpsertSession(context.Background(), &model.Session{}); err == nil {
			t.Error("expected error for session without id")
		}
		if err := db.UpsertSession(context.Background(), nil); err == nil {
			t.Error("expected error for nil session")
		}
	})
}

// TestGetSession_Missing tests that a missing row yields nil, nil.
func TestGetSession_Missing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	got, err := db.GetSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil session, got %+v", got)
	}
}

// TestGetSession_Corrupted tests that an undecodable record is an error.
func TestGetSession_Corrupted(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO sessions (id, file_path, status, record_json, last_update) VALUES (?, ?, ?, ?, ?)`,
		"bad", "/tmp/bad.zip", "running", "{not json", formatTimestamp(time.Now()))
	if err != nil {
		t.Fatalf("failed to insert corrupted row: %v", err)
	}

	if _, err := db.GetSession(ctx, "bad"); err == nil {
		t.Error("expected error for corrupted record")
	}

	// Listing skips the corrupted row instead of failing.
	sessions, err := db.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected corrupted row to be skipped, got %d sessions", len(sessions))
	}
}

// TestDeleteSession tests session deletion.
func TestDeleteSession(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertSession(ctx, testSession("id1", "/tmp/a.zip", model.StatusFailed, time.Now())); err != nil {
		t.Fatalf("UpsertSession failed: %v", err)
	}

	deleted, err := db.DeleteSession(ctx, "id1")
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if !deleted {
		t.Error("expected a row to be deleted")
	}

	deleted, err = db.DeleteSession(ctx, "id1")
	if err != nil {
		t.Fatalf("second DeleteSession failed: %v", err)
	}
	if deleted {
		t.Error("expected no row on second delete")
	}
}

// TestListSessions tests status filtering and recency order.
func TestListSessions(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fixtures := []*model.Session{
		testSession("old-running", "/a.zip", model.StatusRunning, base),
		testSession("new-paused", "/b.zip", model.StatusPaused, base.Add(2*time.Hour)),
		testSession("mid-completed", "/c.zip", model.StatusCompleted, base.Add(time.Hour)),
		testSession("sub-second", "/d.zip", model.StatusRunning, base.Add(500*time.Millisecond)),
	}
	for _, s := range fixtures {
		if err := db.UpsertSession(ctx, s); err != nil {
			t.Fatalf("UpsertSession(%s) failed: %v", s.ID, err)
		}
	}

	tests := []struct {
		name     string
		statuses []model.SessionStatus
		want     []string
	}{
		{
			name: "all sessions newest first",
			want: []string{"new-paused", "mid-completed", "sub-second", "old-running"},
		},
		{
			name:     "pending only",
			statuses: []model.SessionStatus{model.StatusRunning, model.StatusPaused},
			want:     []string{"new-paused", "sub-second", "old-running"},
		},
		{
			name:     "terminal only",
			statuses: []model.SessionStatus{model.StatusCompleted, model.StatusFailed},
			want:     []string{"mid-completed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sessions, err := db.ListSessions(ctx, tt.statuses...)
			if err != nil {
				t.Fatalf("ListSessions failed: %v", err)
			}

			got := make([]string, len(sessions))
			for i, s := range sessions {
				got[i] = s.ID
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPatterns tests pattern upsert, listing and pruning.
func TestPatterns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	records := []PatternRecord{
		{ID: "p1", Type: "word", Key: "word:summer", Record: json.RawMessage(`{"count":1}`), LastSeen: base},
		{ID: "p2", Type: "year", Key: "year:2024", Record: json.RawMessage(`{"count":2}`), LastSeen: base.Add(time.Hour)},
		{ID: "p3", Type: "word", Key: "word:acme", Record: json.RawMessage(`{"count":3}`), LastSeen: base.Add(2 * time.Hour)},
	}
	if err := db.UpsertPatterns(ctx, records); err != nil {
		t.Fatalf("UpsertPatterns failed: %v", err)
	}

	t.Run("lists all newest first", func(t *testing.T) {
		all, err := db.ListPatterns(ctx, "")
		if err != nil {
			t.Fatalf("ListPatterns failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 patterns, got %d", len(all))
		}
		if all[0].ID != "p3" || all[2].ID != "p1" {
			t.Errorf("unexpected order: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
		}
		if !all[2].LastSeen.Equal(base) {
			t.Errorf("LastSeen = %v, want %v", all[2].LastSeen, base)
		}
	})

	t.Run("filters by type and updates in place", func(t *testing.T) {
		updated := records[0]
		updated.Record = json.RawMessage(`{"count":5}`)
		if err := db.UpsertPatterns(ctx, []PatternRecord{updated}); err != nil {
			t.Fatalf("UpsertPatterns failed: %v", err)
		}

		words, err := db.ListPatterns(ctx, "word")
		if err != nil {
			t.Fatalf("ListPatterns failed: %v", err)
		}
		if len(words) != 2 {
			t.Fatalf("expected 2 word patterns, got %d", len(words))
		}
		for _, w := range words {
			if w.ID == "p1" && string(w.Record) != `{"count":5}` {
				t.Errorf("expected updated record, got %s", w.Record)
			}
		}
	})

	t.Run("prunes patterns not kept", func(t *testing.T) {
		n, err := db.DeletePatternsNotIn(ctx, []string{"p2"})
		if err != nil {
			t.Fatalf("DeletePatternsNotIn failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 deletions, got %d", n)
		}

		left, err := db.ListPatterns(ctx, "")
		if err != nil {
			t.Fatalf("ListPatterns failed: %v", err)
		}
		if len(left) != 1 || left[0].ID != "p2" {
			t.Errorf("expected only p2 to remain, got %+v", left)
		}
	})

	t.Run("empty upsert is a no-op", func(t *testing.T) {
		if err := db.UpsertPatterns(ctx, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestParseTimestamp tests the timestamp parsing helper.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantZero bool
		wantYear int
	}{
		{name: "storage layout", input: "2026-01-02T03:04:05.000000000Z", wantYear: 2026},
		{name: "SQLite datetime", input: "2024-01-15 10:30:45", wantYear: 2024},
		{name: "ISO 8601 with Z", input: "2024-01-15T10:30:45Z", wantYear: 2024},
		{name: "RFC3339 with offset", input: "2024-01-15T10:30:45+09:00", wantYear: 2024},
		{name: "empty string", input: "", wantZero: true},
		{name: "garbage", input: "not-a-time", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.wantZero {
				t.Fatalf("parseTimestamp(%q) zero=%v, want %v", tt.input, got.IsZero(), tt.wantZero)
			}
			if !tt.wantZero && got.Year() != tt.wantYear {
				t.Errorf("year = %d, want %d", got.Year(), tt.wantYear)
			}
		})
	}
}

// TestFormatTimestamp_SortsLexically tests that stored timestamps order correctly.
func TestFormatTimestamp_SortsLexically(t *testing.T) {
	t.Parallel()

	earlier := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	later := earlier.Add(500 * time.Millisecond)

	if formatTimestamp(earlier) >= formatTimestamp(later) {
		t.Errorf("%q should sort before %q", formatTimestamp(earlier), formatTimestamp(later))
	}
}
