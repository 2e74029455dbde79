// Package report renders the outcome of a recovery job.
//
// Writers take a model.JobReport and produce one format each:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: a Markdown document with a per-mode breakdown
//   - JSONWriter: structured JSON for other tools
//
// All writers mask the recovered password unless the report asks to reveal it.
package report
