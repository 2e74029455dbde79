package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/arcrack/internal/model"
)

// createTestReport creates a successful job report for testing.
func createTestReport() *model.JobReport {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &model.JobReport{
		RunID:       "3f0c6c1e-run",
		SessionID:   "abc123",
		Archive:     "/data/photos_2019.zip",
		ArchiveSize: 3 << 20,
		Priority:    model.PriorityBalanced,
		Started:     started,
		Finished:    started.Add(90 * time.Second),
		Result: model.RunResult{
			Success:               true,
			Password:              "Love2019!",
			SuccessfulMode:        "date",
			TotalCandidatesTested: 12345,
			ModeResults: []model.ModeResult{
				{Mode: "learned", CandidatesGenerated: 40, CandidatesTested: 40, ExecutionTime: time.Second},
				{Mode: "date", Success: true, Password: "Love2019!", CandidatesGenerated: 15000, CandidatesTested: 12305},
				{Mode: "social", Skipped: true},
			},
		},
		Phases: []model.PhaseRecord{
			{Name: "learned", Start: started, End: started.Add(time.Second), Tested: 40, AvgSpeed: 40},
		},
		AverageSpeed:    137.2,
		PeakSpeed:       210,
		LearnedPatterns: 14,
	}
}

// TestSimpleWriter tests the plain-text writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verbose bool
		reveal  bool
		want    []string
		notWant []string
	}{
		{
			name:    "summary masks the password",
			want:    []string{"PASSWORD RECOVERY REPORT", "/data/photos_2019.zip", "3.0 MiB", "FOUND", "********", "12,345 candidates", "Learned:   14 patterns"},
			notWant: []string{"Love2019!", "MODES"},
		},
		{
			name:    "revealed password",
			reveal:  true,
			want:    []string{"Password:  Love2019!"},
			notWant: []string{"********"},
		},
		{
			name:    "verbose lists modes",
			verbose: true,
			want:    []string{"MODES", "learned", "skipped", "generated=15,000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			report := createTestReport()
			report.RevealPassword = tt.reveal
			n, err := NewSimpleWriter(&buf, WithVerbose(tt.verbose)).Write(report)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != buf.Len() {
				t.Errorf("expected %d bytes, got %d", buf.Len(), n)
			}

			output := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(output, w) {
					t.Errorf("expected output to contain %q\n%s", w, output)
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

// TestSimpleWriter_NotFound tests the failure status.
func TestSimpleWriter_NotFound(t *testing.T) {
	t.Parallel()

	report := createTestReport()
	report.Result.Success = false
	report.Result.Password = ""

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "NOT FOUND") {
		t.Errorf("expected NOT FOUND status, got\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Password:") {
		t.Error("expected no password line")
	}
}

// TestJSONWriter tests the JSON writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes masked valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc JSONReport
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "v1.2.3" || doc.Status != "found" || doc.Elapsed != "1m30s" {
			t.Errorf("unexpected header %+v", doc)
		}
		if doc.Report.Result.Password != "********" {
			t.Errorf("expected masked password, got %q", doc.Report.Result.Password)
		}
		if doc.Report.Result.ModeResults[1].Password != "********" {
			t.Errorf("expected masked mode password, got %q", doc.Report.Result.ModeResults[1].Password)
		}
		if strings.Contains(buf.String(), "Love2019!") {
			t.Error("expected the password not to leak")
		}
		if report.Result.Password != "Love2019!" {
			t.Error("expected the input report to stay unchanged")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"status\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("compact output ends with newline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
			t.Errorf("expected a single trailing newline, got %q", out)
		}
	})
}

// TestMarkdownWriter tests the Markdown writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# Password Recovery Report",
		"`/data/photos_2019.zip`",
		"12,345",
		"## Attack Modes",
		"| date",
		"exhausted",
		"skipped",
		"mermaid",
		"## Phases",
		"14 patterns were learned",
		"`********`",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q\n%s", want, output)
		}
	}
	if strings.Contains(output, "Love2019!") {
		t.Error("expected the password not to leak")
	}
}

// TestMarkdownWriter_Cancelled tests the cancelled status.
func TestMarkdownWriter_Cancelled(t *testing.T) {
	t.Parallel()

	report := createTestReport()
	report.Result = model.RunResult{Cancelled: true}
	report.Phases = nil

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Cancelled") || !strings.Contains(output, "No attack mode ran.") {
		t.Errorf("unexpected output\n%s", output)
	}
	if strings.Contains(output, "## Phases") {
		t.Error("expected no phases section")
	}
}

type failingWriter struct{}

func (failingWriter) Write(*model.JobReport) (int, error) { return 0, errors.New("disk full") }

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
	n, err := mw.Write(createTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}

	var c bytes.Buffer
	mw = NewMultiWriter(failingWriter{}, NewSimpleWriter(&c))
	if _, err := mw.Write(createTestReport()); err == nil {
		t.Error("expected an error")
	}
	if c.Len() != 0 {
		t.Error("expected writers after a failure to be skipped")
	}
}

// TestTruncateString tests rune-aware truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 2, "ab"},
		{"パスワード回復ツール", 6, "パスワ..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
