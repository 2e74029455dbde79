// Package pattern learns reusable features from recovered passwords and
// turns them into candidates for later jobs.
//
// LearnFromSuccess extracts structural, character-class, semantic,
// contextual, n-gram and transform features from one confirmed password.
// Each feature becomes a Pattern identified by a hash of its type and key;
// observing it again raises its count and confidence. FindMatchingPatterns
// selects the patterns relevant to a new archive and
// GeneratePasswordVariants expands them into candidates.
//
// The cache is guarded by a read-write mutex because the background sweep
// started by Run touches the same map as learning and matching. When a
// Store is configured, learned patterns survive restarts.
package pattern
