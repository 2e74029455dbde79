// Package orchestrator runs attack modes one after another against a
// password tester.
//
// An Orchestrator owns one instance of every enabled attack mode. For each
// job it derives the execution order from the priority policy, tunes the
// per-mode candidate caps from the archive size and the policy, and then
// runs each mode in turn: generate, test in chunks, stop on the first hit.
// A failing or panicking mode is recorded and the run moves on.
//
// Usage and success counters accumulate across runs and are exposed by
// Statistics.
package orchestrator
