package blockdiff

import (
	"errors"
	"fmt"
)

// ErrBadRange reports a structurally invalid extent or operation: zero-length,
// out of partition bounds, or mismatched source/destination lengths. It
// indicates an upstream data integrity problem and is never retried.
var ErrBadRange = errors.New("blockdiff: malformed range")

// Range is a contiguous extent of partition blocks [Start, Start+Count).
type Range struct {
	Start uint64
	Count uint64
}

// End returns the exclusive upper bound of the range.
func (r Range) End() uint64 { return r.Start + r.Count }

// Overlaps reports whether r and o share at least one block.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End() && o.Start < r.End()
}

// Contains reports whether block b falls inside the range.
func (r Range) Contains(b uint64) bool { return b >= r.Start && b < r.End() }

func (r Range) validate(totalBlocks uint64) error {
	if r.Count == 0 {
		return fmt.Errorf("%w: empty extent at block %d", ErrBadRange, r.Start)
	}
	if totalBlocks > 0 && r.End() > totalBlocks {
		return fmt.Errorf("%w: extent [%d,%d) exceeds partition of %d blocks",
			ErrBadRange, r.Start, r.End(), totalBlocks)
	}
	return nil
}

// OpKind enumerates the high-level diff operation types.
type OpKind uint8

const (
	// OpSourceCopy moves blocks from the old partition image to new positions.
	OpSourceCopy OpKind = iota + 1
	// OpReplace writes new block contents, either inline (Payload) or read
	// back from the old image (Src) when the payload lives there.
	OpReplace
	// OpZero fills the destination extents with zeroes.
	OpZero
	// OpDiscard releases the destination extents; it is logged identically
	// to OpZero.
	OpDiscard
)

func (k OpKind) String() string {
	switch k {
	case OpSourceCopy:
		return "SOURCE_COPY"
	case OpReplace:
		return "REPLACE"
	case OpZero:
		return "ZERO"
	case OpDiscard:
		return "DISCARD"
	default:
		return "UNKNOWN"
	}
}

// Op is one high-level diff operation. Ops are immutable once produced and
// their presentation order defines the final partition state.
type Op struct {
	Kind OpKind
	// Src is set for SourceCopy, and for Replace ops whose data is read from
	// the old partition image instead of carried inline.
	Src Range
	// Dst is the destination extent, set for all kinds.
	Dst Range
	// Payload carries inline replacement bytes for Replace. Its length must
	// be Dst.Count * blockSize.
	Payload []byte
}

// Validate checks op for structural problems. totalBlocks of zero skips the
// bounds check (partition size unknown), blockSize of zero skips the payload
// length check.
func (op Op) Validate(totalBlocks uint64, blockSize int) error {
	if err := op.Dst.validate(totalBlocks); err != nil {
		return err
	}
	switch op.Kind {
	case OpSourceCopy:
		if err := op.Src.validate(totalBlocks); err != nil {
			return err
		}
		if op.Src.Count != op.Dst.Count {
			return fmt.Errorf("%w: copy src %d blocks vs dst %d blocks",
				ErrBadRange, op.Src.Count, op.Dst.Count)
		}
	case OpReplace:
		if len(op.Payload) > 0 {
			if blockSize > 0 && uint64(len(op.Payload)) != op.Dst.Count*uint64(blockSize) {
				return fmt.Errorf("%w: replace payload %d bytes for %d blocks of %d bytes",
					ErrBadRange, len(op.Payload), op.Dst.Count, blockSize)
			}
		} else {
			if err := op.Src.validate(totalBlocks); err != nil {
				return err
			}
			if op.Src.Count != op.Dst.Count {
				return fmt.Errorf("%w: replace src %d blocks vs dst %d blocks",
					ErrBadRange, op.Src.Count, op.Dst.Count)
			}
		}
	case OpZero, OpDiscard:
		// destination-only
	default:
		return fmt.Errorf("%w: unknown op kind %d", ErrBadRange, op.Kind)
	}
	return nil
}
