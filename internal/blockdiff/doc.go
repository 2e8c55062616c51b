// Package blockdiff models block-level diff operations and converts them into
// the ordered, block-granular records committed to the change log.
//
// # Overview
//
// A partition update arrives as an ordered list of operations: SourceCopy
// (move old blocks to new positions), Replace (new contents, inline or read
// from the old image), Zero, and Discard. Applying records in log order must
// reproduce the same final contents as applying the operations in
// presentation order, so SourceCopy runs are resolved against read-before-
// write hazards: a copy whose source block is another copy's destination must
// be emitted first. Copies form a graph with one writer per block; ordering
// is a topological emission, and genuine cycles (for example a block swap)
// are broken by staging one member as a ReplaceSource record that captures
// the pre-update bytes at log-write time.
//
//	recs, err := blockdiff.Convert(ops, totalBlocks, blockSize)
//
// Malformed input (empty extents, out-of-bounds ranges, payload not a whole
// number of blocks, two copies writing the same block) fails with ErrBadRange.
package blockdiff
