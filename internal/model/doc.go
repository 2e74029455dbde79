// Package model defines the data structures shared by the recovery engine.
//
// This package contains the following main types:
//   - GenerationContext: read-only hints about the target archive
//   - Session: the persisted state of one recovery job
//   - BatchResult, ModeResult, RunResult: verification and orchestration outcomes
//   - ProgressEvent: periodic progress published to the caller
//   - JobReport: the summary handed to report writers
//
// The types live in their own package because the generator, orchestrator,
// session and report packages all need them and must not import each other.
// Every type is JSON-serializable for session storage and report output.
package model
