package blockdiff

import (
	"fmt"
)

// blockCopy is a single-block move produced by expanding a SourceCopy extent.
type blockCopy struct {
	src uint64
	dst uint64
}

// Convert turns an ordered list of diff operations into the ordered list of
// log records that reproduce the same final block contents when applied
// strictly in sequence.
//
// Runs of consecutive SourceCopy operations are resolved together: within a
// run, per-block copies are reordered so that no record reads a block that an
// earlier record in the same run has already overwritten. True cycles are
// broken by staging one member as a ReplaceSource record, which embeds the
// pre-update bytes at log-write time and therefore reads nothing at apply
// time. All other operation kinds convert 1:1 in presentation order.
func Convert(ops []Op, totalBlocks uint64, blockSize int) ([]Record, error) {
	var out []Record
	var pending []blockCopy

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		recs, err := resolveCopies(pending)
		if err != nil {
			return err
		}
		out = append(out, recs...)
		pending = pending[:0]
		return nil
	}

	for i, op := range ops {
		if err := op.Validate(totalBlocks, blockSize); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		switch op.Kind {
		case OpSourceCopy:
			for b := uint64(0); b < op.Dst.Count; b++ {
				pending = append(pending, blockCopy{src: op.Src.Start + b, dst: op.Dst.Start + b})
			}
		case OpReplace:
			if err := flush(); err != nil {
				return nil, err
			}
			out = append(out, convertReplace(op, blockSize)...)
		case OpZero, OpDiscard:
			if err := flush(); err != nil {
				return nil, err
			}
			out = append(out, Record{Kind: RecordZeroRange, Dst: op.Dst.Start, Count: op.Dst.Count})
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// convertReplace expands a Replace op into one record per destination block.
func convertReplace(op Op, blockSize int) []Record {
	recs := make([]Record, 0, op.Dst.Count)
	if len(op.Payload) > 0 {
		for b := uint64(0); b < op.Dst.Count; b++ {
			off := int(b) * blockSize
			recs = append(recs, Record{
				Kind: RecordRawWrite,
				Dst:  op.Dst.Start + b,
				Data: op.Payload[off : off+blockSize],
			})
		}
		return recs
	}
	for b := uint64(0); b < op.Dst.Count; b++ {
		recs = append(recs, Record{
			Kind: RecordReplaceSource,
			Src:  op.Src.Start + b,
			Dst:  op.Dst.Start + b,
		})
	}
	return recs
}

// resolveCopies orders single-block copies so no copy reads a block already
// overwritten by an earlier one, staging cycle members as ReplaceSource.
//
// Dependency edge A->B (A emitted before B) exists when A's source block is
// B's destination block. Each destination has exactly one writer, so every
// node carries at most one outgoing edge; when Kahn's frontier stalls, the
// remaining subgraph is a union of simple cycles and staging any member
// breaks its cycle.
func resolveCopies(copies []blockCopy) ([]Record, error) {
	// Drop in-place no-ops up front.
	live := make([]blockCopy, 0, len(copies))
	for _, c := range copies {
		if c.src != c.dst {
			live = append(live, c)
		}
	}
	n := len(live)
	if n == 0 {
		return nil, nil
	}

	writer := make(map[uint64]int, n)
	for i, c := range live {
		if prev, dup := writer[c.dst]; dup {
			return nil, fmt.Errorf("%w: copies %d and %d both write block %d",
				ErrBadRange, prev, i, c.dst)
		}
		writer[c.dst] = i
	}

	indegree := make([]int, n)
	for _, c := range live {
		if w, ok := writer[c.src]; ok {
			indegree[w]++
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	done := make([]bool, n)
	staged := make([]bool, n)
	released := make([]bool, n)
	out := make([]Record, 0, n)

	// release drops node i's read edge, unblocking the writer of its source.
	release := func(i int) {
		if released[i] {
			return
		}
		released[i] = true
		if w, ok := writer[live[i].src]; ok && !done[w] {
			indegree[w]--
			if indegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	emitted := 0
	for emitted < n {
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			done[i] = true
			emitted++
			kind := RecordCopy
			if staged[i] {
				kind = RecordReplaceSource
			}
			out = append(out, Record{Kind: kind, Src: live[i].src, Dst: live[i].dst})
			release(i)
		}
		if emitted == n {
			break
		}
		// Frontier stalled: the remainder is all cycles. Stage the pending
		// copy with the smallest destination block, deterministically.
		j := -1
		for i := 0; i < n; i++ {
			if done[i] || staged[i] {
				continue
			}
			if j < 0 || live[i].dst < live[j].dst {
				j = i
			}
		}
		if j < 0 {
			// Every remaining node is already staged yet blocked, which the
			// single-writer graph structure rules out.
			return nil, fmt.Errorf("%w: unsatisfiable copy ordering", ErrBadRange)
		}
		staged[j] = true
		release(j)
	}
	return out, nil
}
