// Package cowlog implements the durable, append-only change log a partition
// writer commits block records into.
//
// # Overview
//
// Records are block-granular (copy, raw write, zero range) plus checkpoint
// labels. The log guarantees a sequencing contract rather than a wire format:
// AppendLabel(n) returns only once every prior append is durable, and
// InitAtLabel(n) re-opens the log positioned exactly after label n, dropping
// any trailing partial appends and nothing else. Labels are strictly
// increasing; label 0 is reserved by the writer for the end of the
// source-copy phase.
//
// Keys are lexicographically ordered for efficient range scans:
//   - cow/{partition}/m           (metadata: lastSeq, label floor, finalized)
//   - cow/{partition}/e/{seq_be8} (records)
//
// Records are stored as: kind(1B) | fields | crc32c.
//
// Two Session implementations exist: PebbleLog, the production adapter over
// the shared Pebble store, and MemoryLog, an in-memory fake with identical
// truncation semantics for tests.
package cowlog
