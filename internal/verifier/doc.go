// Package verifier tests password candidates against an external archive
// oracle.
//
// The oracle answers one password per invocation: exit status 0 means the
// password opens the archive, anything else means it does not. A batch is
// therefore verified by running one oracle per candidate concurrently and
// racing them. The first success cancels the rest; otherwise the batch
// waits for every oracle to finish or time out.
//
// Oracle timeouts and spawn failures count as a rejected candidate, never
// as a failed job.
package verifier
