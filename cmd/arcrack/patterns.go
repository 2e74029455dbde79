package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nao1215/arcrack/internal/contexthint"
	"github.com/nao1215/arcrack/internal/model"
	"github.com/nao1215/arcrack/internal/pattern"
)

// NewPatternsCmd creates the patterns command group.
func NewPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and maintain learned password patterns",
		Long: `Patterns manages the features learned from recovered passwords.

Every successful recovery records the password's structure (length,
words, years, keyboard runs, affixes) together with the archive it
opened. The learned mode turns these patterns into candidates for
similar archives.

Examples:
  # Show the most confident patterns
  arcrack patterns list

  # Show only learned words
  arcrack patterns list --type word

  # Teach a password you already know, in the context of an archive
  arcrack patterns learn - backup_2019.zip < password.txt`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		Args:  cobra.NoArgs,
		RunE:  runPatternsList,
	}
	list.Flags().StringP("type", "t", "", "Only list patterns of this type")
	list.Flags().IntP("limit", "n", 50, "Maximum number of patterns to list (0 = all)")

	learn := &cobra.Command{
		Use:   "learn <password|-> [archive]",
		Short: "Learn the patterns of a known password",
		Long: `Learn records the patterns of a password as if it had just been recovered.
Pass "-" to read the password from standard input instead of the command line.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPatternsLearn,
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Evict expired and rarely seen patterns",
		Args:  cobra.NoArgs,
		RunE:  runPatternsSweep,
	}

	cmd.AddCommand(list, learn, sweep)
	return cmd
}

// runPatternsList executes patterns list.
func runPatternsList(cmd *cobra.Command, _ []string) error {
	typeName, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	patterns := a.patterns.List(pattern.Type(strings.ToLower(typeName)))
	out := cmd.OutOrStdout()
	if len(patterns) == 0 {
		fmt.Fprintln(out, "No patterns learned yet.")
		return nil
	}
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	if err := renderPatterns(out, patterns, time.Now()); err != nil {
		return err
	}
	printPatternStatistics(out, a.patterns.Statistics())
	return nil
}

// renderPatterns prints patterns as a table.
func renderPatterns(w io.Writer, patterns []pattern.Pattern, now time.Time) error {
	table := tablewriter.NewWriter(w)
	table.Header("Type", "Key", "Confidence", "Count", "Last Seen")
	for _, p := range patterns {
		row := []string{
			string(p.Type),
			p.Key,
			strconv.FormatFloat(p.Confidence, 'f', 2, 64),
			humanize.Comma(int64(p.Count)),
			humanize.RelTime(p.LastSeen, now, "ago", "from now"),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render patterns: %w", err)
		}
	}
	return table.Render()
}

// printPatternStatistics prints the cache summary below the table.
func printPatternStatistics(w io.Writer, s pattern.Statistics) {
	types := slices.Sorted(maps.Keys(s.TypeDistribution))
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", t, s.TypeDistribution[t]))
	}
	fmt.Fprintf(w, "\n%s patterns, average confidence %.2f\n", humanize.Comma(int64(s.TotalPatterns)), s.AverageConfidence)
	if len(parts) > 0 {
		fmt.Fprintf(w, "Types: %s\n", strings.Join(parts, " "))
	}
}

// runPatternsLearn executes patterns learn.
func runPatternsLearn(cmd *cobra.Command, args []string) error {
	password := args[0]
	if password == "-" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("empty password")
	}

	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	gc := model.NewGenerationContext("")
	if len(args) > 1 {
		gc, err = contexthint.Build(cmd.Context(), args[1], contexthint.Options{Logger: a.logger})
		if err != nil {
			return err
		}
	}

	n, err := a.patterns.LearnFromSuccess(cmd.Context(), password, gc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Learned %d patterns (%d stored)\n", n, a.patterns.Len())
	return nil
}

// runPatternsSweep executes patterns sweep.
func runPatternsSweep(cmd *cobra.Command, _ []string) error {
	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.patterns.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d patterns, %d remain\n", removed, a.patterns.Len())
	return nil
}
