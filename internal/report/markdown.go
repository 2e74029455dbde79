package report

import (
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/arcrack/internal/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs reports as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report.
func (w *MarkdownWriter) Write(report *model.JobReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeModes(md, report)
	w.writePhases(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.JobReport) {
	md.H1("Password Recovery Report")
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + report.RunID + "`"},
		{"Archive", "`" + report.Archive + "`"},
	}
	if report.ArchiveSize > 0 {
		rows = append(rows, []string{"Size", humanize.IBytes(uint64(report.ArchiveSize))})
	}
	rows = append(rows,
		[]string{"Priority", report.Priority.String()},
		[]string{"Started", report.Started.Format(timeLayout)},
		[]string{"Elapsed", report.Elapsed().Round(time.Millisecond).String()},
		[]string{"Tested", humanize.Comma(int64(report.Result.TotalCandidatesTested))},
		[]string{"Status", statusText(report)},
	)
	if report.Result.Success {
		rows = append(rows,
			[]string{"Password", "`" + report.DisplayPassword() + "`"},
			[]string{"Mode", report.Result.SuccessfulMode},
		)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(report *model.JobReport) string {
	switch {
	case report.Result.Success:
		return "✅ Found"
	case report.Result.Cancelled:
		return "⚠️ Cancelled (partial results)"
	default:
		return "❌ Not found"
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.JobReport) {
	switch {
	case report.Result.Success:
		md.Tipf("Recovered by the %s mode after %s candidates.",
			report.Result.SuccessfulMode, humanize.Comma(int64(report.Result.TotalCandidatesTested)))
	case report.Result.Cancelled:
		md.Warning("The run was stopped before every mode finished. Resume it with `arcrack crack --resume`.")
	default:
		md.Important("No candidate opened the archive. Add keywords or hints, or try the thorough priority.")
	}
	if report.LearnedPatterns > 0 {
		md.PlainText("")
		md.Notef("%d patterns were learned from this result.", report.LearnedPatterns)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeModes(md *markdown.Markdown, report *model.JobReport) {
	md.H2("Attack Modes")
	md.PlainText("")

	if len(report.Result.ModeResults) == 0 {
		md.PlainText("No attack mode ran.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Result.ModeResults))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Candidates Tested per Mode"),
		piechart.WithShowData(true),
	)
	charted := 0
	for _, mr := range report.Result.ModeResults {
		errText := "-"
		if mr.Error != "" {
			errText = truncateString(mr.Error, 60)
		}
		rows = append(rows, []string{
			mr.Mode,
			modeStatus(mr),
			humanize.Comma(int64(mr.CandidatesGenerated)),
			humanize.Comma(int64(mr.CandidatesTested)),
			mr.ExecutionTime.Round(time.Millisecond).String(),
			errText,
		})
		if mr.CandidatesTested > 0 {
			chart.LabelAndIntValue(mr.Mode, uint64(mr.CandidatesTested))
			charted++
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Mode", "Status", "Generated", "Tested", "Time", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	if charted > 1 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writePhases(md *markdown.Markdown, report *model.JobReport) {
	if len(report.Phases) == 0 {
		return
	}
	md.H2("Phases")
	md.PlainText("")

	rows := make([][]string, len(report.Phases))
	for i, p := range report.Phases {
		rows[i] = []string{
			p.Name,
			p.Start.Format(timeLayout),
			p.Duration().Round(time.Millisecond).String(),
			humanize.Comma(p.Tested),
			strconv.FormatFloat(p.AvgSpeed, 'f', 1, 64) + "/s",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Phase", "Start", "Duration", "Tested", "Speed"},
		Rows:   rows,
	})
	md.PlainText("")

	md.Details("Speed", "average "+strconv.FormatFloat(report.AverageSpeed, 'f', 1, 64)+
		"/s, peak "+strconv.FormatFloat(report.PeakSpeed, 'f', 1, 64)+"/s")
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by arcrack*")
}

// truncateString truncates a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
