package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/arcrack/internal/model"
)

const ruleWidth = 60

// SimpleWriter outputs a plain-text summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-mode and per-phase breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-mode breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *model.JobReport) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString("PASSWORD RECOVERY REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")

	fmt.Fprintf(&sb, "Archive:   %s\n", report.Archive)
	if report.ArchiveSize > 0 {
		fmt.Fprintf(&sb, "Size:      %s\n", humanize.IBytes(uint64(report.ArchiveSize)))
	}
	fmt.Fprintf(&sb, "Priority:  %s\n", report.Priority)
	fmt.Fprintf(&sb, "Status:    %s\n", strings.ToUpper(status(report)))
	if report.Result.Success {
		fmt.Fprintf(&sb, "Password:  %s\n", report.DisplayPassword())
		fmt.Fprintf(&sb, "Mode:      %s\n", report.Result.SuccessfulMode)
	}
	fmt.Fprintf(&sb, "Tested:    %s candidates\n", humanize.Comma(int64(report.Result.TotalCandidatesTested)))
	fmt.Fprintf(&sb, "Elapsed:   %s\n", report.Elapsed().Round(time.Millisecond))
	if report.AverageSpeed > 0 {
		fmt.Fprintf(&sb, "Speed:     %s/s avg, %s/s peak\n",
			humanize.CommafWithDigits(report.AverageSpeed, 1),
			humanize.CommafWithDigits(report.PeakSpeed, 1))
	}
	if report.LearnedPatterns > 0 {
		fmt.Fprintf(&sb, "Learned:   %d patterns\n", report.LearnedPatterns)
	}
	sb.WriteString("\n")

	if w.verbose {
		w.writeModes(&sb, report)
	}

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeModes(sb *strings.Builder, report *model.JobReport) {
	if len(report.Result.ModeResults) == 0 {
		return
	}
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	sb.WriteString("MODES\n")
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	for _, mr := range report.Result.ModeResults {
		fmt.Fprintf(sb, "  %-11s %-9s generated=%s tested=%s time=%s\n",
			mr.Mode,
			modeStatus(mr),
			humanize.Comma(int64(mr.CandidatesGenerated)),
			humanize.Comma(int64(mr.CandidatesTested)),
			mr.ExecutionTime.Round(time.Millisecond),
		)
		if mr.Error != "" {
			fmt.Fprintf(sb, "              error: %s\n", mr.Error)
		}
	}
	sb.WriteString("\n")
}
