package report

import (
	"io"

	"github.com/nao1215/arcrack/internal/model"
)

// Writer renders a job report to its destination.
type Writer interface {
	// Write renders the report and returns the number of bytes written.
	Write(report *model.JobReport) (int, error)
}

// MultiWriter writes to several Writers in order and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report with every writer and returns the total bytes.
func (m *MultiWriter) Write(report *model.JobReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// masked returns a copy of report whose passwords are replaced by the
// display form.
func masked(report *model.JobReport) model.JobReport {
	out := *report
	out.Result.Password = report.DisplayPassword()
	out.Result.ModeResults = make([]model.ModeResult, len(report.Result.ModeResults))
	for i, mr := range report.Result.ModeResults {
		if mr.Password != "" {
			mr.Password = out.Result.Password
		}
		out.Result.ModeResults[i] = mr
	}
	return out
}

// status returns a one-word outcome of the run.
func status(report *model.JobReport) string {
	switch {
	case report.Result.Success:
		return "found"
	case report.Result.Cancelled:
		return "cancelled"
	default:
		return "not found"
	}
}

// modeStatus describes how one mode ended.
func modeStatus(mr model.ModeResult) string {
	switch {
	case mr.Skipped:
		return "skipped"
	case mr.Success:
		return "found"
	case mr.Error != "":
		return "error"
	default:
		return "exhausted"
	}
}
