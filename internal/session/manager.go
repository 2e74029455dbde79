// Package session persists recovery jobs so they can be paused, resumed
// after a restart and listed.
//
// A session is keyed by the hex MD5 of the absolute archive path, so the
// same archive always maps to the same record. Only one pending session
// per archive may exist; Create enforces this at the application level
// and there is no cross-process locking. Writes are last-write-wins.
package session

import (
	"context"
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/nao1215/arcrack/internal/model"
)

// DefaultRetention is how long terminal sessions are kept by CleanupOld.
const DefaultRetention = 30 * 24 * time.Hour

// Store is the durable session storage. *database.StateDB implements it.
type Store interface {
	UpsertSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	ListSessions(ctx context.Context, statuses ...model.SessionStatus) ([]*model.Session, error)
}

// Summary is one row of ListPending.
type Summary struct {
	ID             string              `json:"id"`
	FileName       string              `json:"fileName"`
	FilePath       string              `json:"filePath"`
	Status         model.SessionStatus `json:"status"`
	CurrentPhase   string              `json:"currentPhase,omitempty"`
	TestedCount    int64               `json:"testedCount"`
	LastUpdateTime time.Time           `json:"lastUpdateTime"`

	// Progress is the percent progress, or -1 when the total is unknown.
	Progress int `json:"progress"`
}

// Manager creates, transitions and cleans up sessions.
type Manager struct {
	store     Store
	logger    *slog.Logger
	now       func() time.Time
	retention time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithRetention sets how long terminal sessions are kept.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retention = d
		}
	}
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		now:       time.Now,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// SessionID returns the hex MD5 of the absolute form of path. If the
// absolute path cannot be determined the cleaned path is hashed instead.
func SessionID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	sum := md5.Sum([]byte(abs)) //nolint:gosec // identity hash
	return hex.EncodeToString(sum[:])
}

// Create starts a new running session for the archive at path.
// When a pending session already exists it is returned together with
// ErrSessionActive, so the caller can offer to resume it.
func (m *Manager) Create(ctx context.Context, path string, opts model.SessionOptions) (*model.Session, error) {
	existing, err := m.FindPendingForFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: %s (%s)", ErrSessionActive, existing.ID, existing.Status)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	now := m.now()
	s := &model.Session{
		ID:             SessionID(path),
		FilePath:       abs,
		FileName:       filepath.Base(abs),
		Status:         model.StatusRunning,
		Options:        opts,
		StartTime:      now,
		LastUpdateTime: now,
	}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.Debug("session created", "id", s.ID, "file", s.FileName)
	return s, nil
}

// Save overwrites the stored record of s and refreshes its
// LastUpdateTime. The refreshed time is never earlier than the previous one.
func (m *Manager) Save(ctx context.Context, s *model.Session) error {
	now := m.now()
	if now.Before(s.LastUpdateTime) {
		now = s.LastUpdateTime
	}
	s.LastUpdateTime = now

	if err := m.store.UpsertSession(ctx, s); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

// Load reads the session with the given id. A corrupted record is
// reported as an error and left untouched.
func (m *Manager) Load(ctx context.Context, id string) (*model.Session, error) {
	s, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// FindPendingForFile returns the running or paused session of the archive
// at path, or nil when there is none.
func (m *Manager) FindPendingForFile(ctx context.Context, path string) (*model.Session, error) {
	s, err := m.store.GetSession(ctx, SessionID(path))
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if s == nil || !s.Status.IsPending() {
		return nil, nil
	}
	return s, nil
}

// Update loads a session, applies fn to it and saves the result.
func (m *Manager) Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	s, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Pause marks a running session as paused.
func (m *Manager) Pause(ctx context.Context, id string) (*model.Session, error) {
	return m.transition(ctx, id, model.StatusPaused)
}

// Resume marks a paused or running session as running.
func (m *Manager) Resume(ctx context.Context, id string) (*model.Session, error) {
	return m.transition(ctx, id, model.StatusRunning)
}

func (m *Manager) transition(ctx context.Context, id string, to model.SessionStatus) (*model.Session, error) {
	return m.Update(ctx, id, func(s *model.Session) error {
		if s.Status.IsTerminal() {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, s.ID, s.Status)
		}
		s.Status = to
		return nil
	})
}

// Complete ends a session. A successful session stores the recovered
// password and becomes completed; an unsuccessful one becomes failed.
func (m *Manager) Complete(ctx context.Context, id string, success bool, password string) (*model.Session, error) {
	return m.Update(ctx, id, func(s *model.Session) error {
		end := m.now()
		s.EndTime = &end
		if success {
			s.Status = model.StatusCompleted
			s.FoundPassword = password
		} else {
			s.Status = model.StatusFailed
		}
		return nil
	})
}

// Fail marks a session as failed after an unrecoverable error.
func (m *Manager) Fail(ctx context.Context, id string) (*model.Session, error) {
	return m.Complete(ctx, id, false, "")
}

// ListPending returns every running or paused session, most recently
// updated first, with its percent progress.
func (m *Manager) ListPending(ctx context.Context) ([]Summary, error) {
	sessions, err := m.store.ListSessions(ctx, model.StatusRunning, model.StatusPaused)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, Summary{
			ID:             s.ID,
			FileName:       s.FileName,
			FilePath:       s.FilePath,
			Status:         s.Status,
			CurrentPhase:   s.CurrentPhase,
			TestedCount:    s.TestedCount,
			LastUpdateTime: s.LastUpdateTime,
			Progress:       s.Progress(),
		})
	}
	slices.SortStableFunc(out, func(a, b Summary) int {
		return b.LastUpdateTime.Compare(a.LastUpdateTime)
	})
	return out, nil
}

// List returns every session with one of the given statuses, or all
// sessions when none are given.
func (m *Manager) List(ctx context.Context, statuses ...model.SessionStatus) ([]*model.Session, error) {
	sessions, err := m.store.ListSessions(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// CleanupOld deletes completed and failed sessions whose last update is
// older than the retention window. It returns the number deleted.
func (m *Manager) CleanupOld(ctx context.Context) (int, error) {
	sessions, err := m.store.ListSessions(ctx, model.StatusCompleted, model.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to list terminal sessions: %w", err)
	}

	cutoff := m.now().Add(-m.retention)
	cleaned := 0
	for _, s := range sessions {
		if !s.LastUpdateTime.Before(cutoff) {
			continue
		}
		deleted, err := m.store.DeleteSession(ctx, s.ID)
		if err != nil {
			m.logger.Warn("failed to delete old session", "id", s.ID, "error", err)
			continue
		}
		if deleted {
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info("cleaned up old sessions", "count", cleaned)
	}
	return cleaned, nil
}

// Delete removes a session. Deleting a missing session returns
// ErrSessionNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	deleted, err := m.store.DeleteSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}
