// Package partition coordinates writing one partition's block diff into a
// durable change log.
//
// A Writer owns the partition's log session and its persisted progress
// marker. A fresh Init converts the SourceCopy phase (resolving copy hazards
// through blockdiff) and seals it with label 0; steady-state operations are
// then applied one at a time and checkpointed with label n+1 after operation
// n. Because each checkpoint commits the label before moving the marker, a
// crash at any point leaves the marker pointing at a label that is known to
// exist, and a later session resumes from exactly there with Init(resume).
package partition
