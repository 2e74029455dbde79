package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nao1215/arcrack/internal/model"
	"github.com/nao1215/arcrack/internal/session"
)

// errAmbiguousID is returned when a session id prefix matches several sessions.
var errAmbiguousID = errors.New("ambiguous session id")

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved recovery sessions",
		Long: `Sessions lists and manages the recovery jobs stored in the database.

A session id may be abbreviated to any unique prefix.

Examples:
  # Show running and paused sessions
  arcrack sessions list

  # Show every session including finished ones
  arcrack sessions list --all

  # Remove finished sessions older than a week
  arcrack sessions cleanup --older-than 168h`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pending sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
	list.Flags().BoolP("all", "a", false, "Include completed and failed sessions")

	pause := &cobra.Command{
		Use:   "pause <id>",
		Short: "Mark a running session as paused",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionTransition((*session.Manager).Pause, "paused"),
	}
	resume := &cobra.Command{
		Use:   "resume <id>",
		Short: "Mark a paused session as running",
		Long: `Resume marks a paused session as running. The search itself continues with
'arcrack crack --resume <archive>'.`,
		Args: cobra.ExactArgs(1),
		RunE: runSessionTransition((*session.Manager).Resume, "resumed"),
	}
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionDelete,
	}

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old completed and failed sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCleanup,
	}
	cleanup.Flags().Duration("older-than", session.DefaultRetention,
		"Delete finished sessions last updated before this long ago")

	cmd.AddCommand(list, pause, resume, del, cleanup)
	return cmd
}

// runSessionsList executes sessions list.
func runSessionsList(cmd *cobra.Command, _ []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var sessions []*model.Session
	if all {
		sessions, err = a.sessions.List(cmd.Context())
	} else {
		sessions, err = a.sessions.List(cmd.Context(), model.StatusRunning, model.StatusPaused)
	}
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}
	return renderSessions(cmd.OutOrStdout(), sessions, time.Now())
}

// renderSessions prints sessions as a table.
func renderSessions(w io.Writer, sessions []*model.Session, now time.Time) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Archive", "Status", "Phase", "Tested", "Progress", "Updated")
	for _, s := range sessions {
		progress := "-"
		if p := s.Progress(); p >= 0 {
			progress = strconv.Itoa(p) + "%"
		}
		phase := s.CurrentPhase
		if phase == "" {
			phase = "-"
		}
		row := []string{
			shortID(s.ID),
			s.FileName,
			s.Status.String(),
			phase,
			humanize.Comma(s.TestedCount),
			progress,
			humanize.RelTime(s.LastUpdateTime, now, "ago", "from now"),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render sessions: %w", err)
		}
	}
	return table.Render()
}

// shortID abbreviates a session id for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// resolveSessionID expands a unique id prefix to the full session id.
func resolveSessionID(cmd *cobra.Command, a *app, prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", session.ErrSessionNotFound)
	}
	sessions, err := a.sessions.List(cmd.Context())
	if err != nil {
		return "", err
	}

	var matches []string
	for _, s := range sessions {
		if s.ID == prefix {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, prefix) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", session.ErrSessionNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d sessions", errAmbiguousID, prefix, len(matches))
	}
}

// runSessionTransition returns a RunE that applies a status change.
func runSessionTransition(transition func(*session.Manager, context.Context, string) (*model.Session, error), verb string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := commandApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := resolveSessionID(cmd, a, args[0])
		if err != nil {
			return err
		}
		s, err := transition(a.sessions, cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s (%s) %s\n", shortID(s.ID), s.FileName, verb)
		return nil
	}
}

// runSessionDelete executes sessions delete.
func runSessionDelete(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveSessionID(cmd, a, args[0])
	if err != nil {
		return err
	}
	if err := a.sessions.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted\n", shortID(id))
	return nil
}

// runSessionsCleanup executes sessions cleanup.
func runSessionsCleanup(cmd *cobra.Command, _ []string) error {
	olderThan, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return err
	}

	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	mgr := session.NewManager(a.db, session.WithLogger(a.logger), session.WithRetention(olderThan))
	n, err := mgr.CleanupOld(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old sessions\n", n)
	return nil
}
