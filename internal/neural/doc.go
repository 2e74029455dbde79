// Package neural streams password candidates sampled from a sequence model.
//
// Two interchangeable backends implement Backend:
//
//   - GraphBackend evaluates a character-level logits graph stored as JSON.
//     Graphs are produced by Train from any word list.
//   - SubprocessBackend runs an external inference script once per batch and
//     reads the candidates it prints as JSON.
//
// Discover picks one backend at construction time and the choice is fixed
// for the lifetime of the generator. StreamingGenerator runs several worker
// loops against the backend, feeds one shared queue and filters it through
// a bounded DedupWindow. A BatchController resizes the batches from the
// observed latency and throughput.
package neural
