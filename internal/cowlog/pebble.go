package cowlog

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
)

const metaFinalized = 0x01

// PebbleLog is the production Session adapter persisting records in Pebble.
// Records are keyed by a monotone sequence; labels commit with a forced WAL
// sync so AppendLabel doubles as the durability barrier.
type PebbleLog struct {
	db        *pebblestore.DB
	partition string

	mu         sync.Mutex
	ready      bool
	lastSeq    uint64
	labelFloor uint64 // smallest label AppendLabel will accept next
	finalized  bool
}

// OpenPebbleLog binds a log session to a partition, loading any persisted
// metadata. The session accepts appends only after InitFresh or InitAtLabel.
func OpenPebbleLog(db *pebblestore.DB, partition string) (*PebbleLog, error) {
	l := &PebbleLog{db: db, partition: partition}
	meta, err := db.Get(KeyMeta(partition))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return l, nil
		}
		return nil, err
	}
	if len(meta) >= 17 {
		l.lastSeq = binary.BigEndian.Uint64(meta[0:8])
		l.labelFloor = binary.BigEndian.Uint64(meta[8:16])
		l.finalized = meta[16]&metaFinalized != 0
	}
	return l, nil
}

func (l *PebbleLog) metaBytes() []byte {
	out := make([]byte, 17)
	binary.BigEndian.PutUint64(out[0:8], l.lastSeq)
	binary.BigEndian.PutUint64(out[8:16], l.labelFloor)
	if l.finalized {
		out[16] |= metaFinalized
	}
	return out
}

// InitFresh discards all prior records for the partition and positions an
// empty log for appending.
func (l *PebbleLog) InitFresh() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	low, hi := entryBounds(l.partition)
	l.lastSeq = 0
	l.labelFloor = 0
	l.finalized = false

	b := l.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(low, hi, nil); err != nil {
		return err
	}
	if err := b.Set(KeyMeta(l.partition), l.metaBytes(), nil); err != nil {
		return err
	}
	if err := l.db.CommitBatchSync(context.Background(), b); err != nil {
		return err
	}
	l.ready = true
	return nil
}

// InitAtLabel re-opens the log for append directly after the given label,
// deleting any trailing records past it. Fails with ErrLabelNotFound when the
// label was never durably appended.
func (l *PebbleLog) InitAtLabel(label uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	foundSeq := uint64(0)
	found := false
	err := l.scanLocked(func(seq uint64, rec Record) bool {
		if rec.Kind == KindLabel && rec.Label == label {
			foundSeq = seq
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: label %d in partition %q", ErrLabelNotFound, label, l.partition)
	}

	l.lastSeq = foundSeq
	l.labelFloor = label + 1
	l.finalized = false

	_, hi := entryBounds(l.partition)
	b := l.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(KeyEntry(l.partition, foundSeq+1), hi, nil); err != nil {
		return err
	}
	if err := b.Set(KeyMeta(l.partition), l.metaBytes(), nil); err != nil {
		return err
	}
	if err := l.db.CommitBatchSync(context.Background(), b); err != nil {
		return err
	}
	l.ready = true
	return nil
}

func (l *PebbleLog) append(rec Record, sync bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finalized {
		return ErrFinalized
	}
	if !l.ready {
		return ErrNotInitialized
	}

	seq := l.lastSeq + 1
	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Set(KeyEntry(l.partition, seq), EncodeRecord(rec), nil); err != nil {
		return err
	}
	prevSeq, prevFloor := l.lastSeq, l.labelFloor
	l.lastSeq = seq
	if rec.Kind == KindLabel {
		l.labelFloor = rec.Label + 1
	}
	if err := b.Set(KeyMeta(l.partition), l.metaBytes(), nil); err != nil {
		l.lastSeq, l.labelFloor = prevSeq, prevFloor
		return err
	}

	ctx := context.Background()
	var err error
	if sync {
		err = l.db.CommitBatchSync(ctx, b)
	} else {
		err = l.db.CommitBatch(ctx, b)
	}
	if err != nil {
		l.lastSeq, l.labelFloor = prevSeq, prevFloor
		return err
	}
	return nil
}

// AppendCopy implements Session.
func (l *PebbleLog) AppendCopy(dst, src uint64) error {
	return l.append(Record{Kind: KindCopy, Dst: dst, Src: src}, false)
}

// AppendRawWrite implements Session.
func (l *PebbleLog) AppendRawWrite(dst uint64, data []byte) error {
	return l.append(Record{Kind: KindRawWrite, Dst: dst, Data: data}, false)
}

// AppendZeroRange implements Session.
func (l *PebbleLog) AppendZeroRange(dst, count uint64) error {
	return l.append(Record{Kind: KindZeroRange, Dst: dst, Count: count}, false)
}

// AppendLabel implements Session. The commit carries a forced WAL sync so all
// prior appends are durable before it returns.
func (l *PebbleLog) AppendLabel(n uint64) error {
	l.mu.Lock()
	floor := l.labelFloor
	l.mu.Unlock()
	if n < floor {
		return fmt.Errorf("%w: got %d, floor %d", ErrLabelOrder, n, floor)
	}
	return l.append(Record{Kind: KindLabel, Label: n}, true)
}

// Finalize implements Session. Idempotent.
func (l *PebbleLog) Finalize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finalized {
		return nil
	}
	l.finalized = true
	l.ready = false
	if err := l.db.SetSync(KeyMeta(l.partition), l.metaBytes()); err != nil {
		l.finalized = false
		return err
	}
	return nil
}

// Scan walks records in log order, stopping early when fn returns false.
// A record that fails its checksum aborts the scan with an error.
func (l *PebbleLog) Scan(fn func(seq uint64, rec Record) bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scanLocked(fn)
}

func (l *PebbleLog) scanLocked(fn func(seq uint64, rec Record) bool) error {
	low, hi := entryBounds(l.partition)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return err
	}
	defer iter.Close()

	for ok := iter.First(); ok; ok = iter.Next() {
		seq := seqFromEntryKey(iter.Key())
		rec, decoded := DecodeRecord(iter.Value())
		if !decoded {
			return fmt.Errorf("cowlog: corrupt record at seq %d in partition %q", seq, l.partition)
		}
		if !fn(seq, rec) {
			return nil
		}
	}
	return nil
}

// Stats summarizes the persisted log for status reporting.
type Stats struct {
	Records   int   // total records including labels
	LastLabel int64 // -1 when no label has been appended
	Finalized bool
}

// Stats reports record count, last label, and finalized state.
func (l *PebbleLog) Stats() (Stats, error) {
	s := Stats{LastLabel: -1}
	l.mu.Lock()
	if l.labelFloor > 0 {
		s.LastLabel = int64(l.labelFloor) - 1
	}
	s.Finalized = l.finalized
	l.mu.Unlock()

	err := l.Scan(func(uint64, Record) bool {
		s.Records++
		return true
	})
	return s, err
}
