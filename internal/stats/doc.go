// Package stats tracks the progress of a recovery job and estimates the
// time it has left.
//
// A Collector is fed by the orchestrator through UpdateProgress,
// UpdateSpeed, StartPhase and EndPhase, and read concurrently by the CLI
// through Stats, SimpleStats and ETA. Snapshots are derived on demand and
// are never persisted on their own; the session record is the durable copy.
//
// Two ETA models exist. When the size of the search space is known, the
// remaining candidate count is divided by a blend of the recent speed
// (an exponentially weighted average over the last samples) and the
// lifetime average. When it is unknown, as with open-ended neural
// generation, the estimate is built from the average duration of the
// phases that already finished.
package stats
