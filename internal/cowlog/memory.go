package cowlog

import (
	"fmt"
	"sync"
)

// MemoryLog is an in-memory Session used by tests. It mirrors PebbleLog's
// truncation and label-ordering semantics without any persistence.
type MemoryLog struct {
	mu         sync.Mutex
	ready      bool
	finalized  bool
	labelFloor uint64
	records    []Record

	// FailAppends forces every append to error, for failure-path tests.
	FailAppends bool
}

// NewMemoryLog returns an uninitialized in-memory session.
func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

// InitFresh implements Session.
func (l *MemoryLog) InitFresh() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.labelFloor = 0
	l.finalized = false
	l.ready = true
	return nil
}

// InitAtLabel implements Session.
func (l *MemoryLog) InitAtLabel(label uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, rec := range l.records {
		if rec.Kind == KindLabel && rec.Label == label {
			l.records = l.records[:i+1]
			l.labelFloor = label + 1
			l.finalized = false
			l.ready = true
			return nil
		}
	}
	return fmt.Errorf("%w: label %d", ErrLabelNotFound, label)
}

func (l *MemoryLog) append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailAppends {
		return fmt.Errorf("cowlog: injected append failure")
	}
	if l.finalized {
		return ErrFinalized
	}
	if !l.ready {
		return ErrNotInitialized
	}
	if rec.Kind == KindRawWrite {
		rec.Data = append([]byte(nil), rec.Data...)
	}
	l.records = append(l.records, rec)
	if rec.Kind == KindLabel {
		l.labelFloor = rec.Label + 1
	}
	return nil
}

// AppendCopy implements Session.
func (l *MemoryLog) AppendCopy(dst, src uint64) error {
	return l.append(Record{Kind: KindCopy, Dst: dst, Src: src})
}

// AppendRawWrite implements Session.
func (l *MemoryLog) AppendRawWrite(dst uint64, data []byte) error {
	return l.append(Record{Kind: KindRawWrite, Dst: dst, Data: data})
}

// AppendZeroRange implements Session.
func (l *MemoryLog) AppendZeroRange(dst, count uint64) error {
	return l.append(Record{Kind: KindZeroRange, Dst: dst, Count: count})
}

// AppendLabel implements Session.
func (l *MemoryLog) AppendLabel(n uint64) error {
	l.mu.Lock()
	floor := l.labelFloor
	l.mu.Unlock()
	if n < floor {
		return fmt.Errorf("%w: got %d, floor %d", ErrLabelOrder, n, floor)
	}
	return l.append(Record{Kind: KindLabel, Label: n})
}

// Finalize implements Session. Idempotent.
func (l *MemoryLog) Finalize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finalized = true
	l.ready = false
	return nil
}

// Records returns a copy of all appended records in order.
func (l *MemoryLog) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

// Labels returns every label value in append order.
func (l *MemoryLog) Labels() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []uint64
	for _, rec := range l.records {
		if rec.Kind == KindLabel {
			out = append(out, rec.Label)
		}
	}
	return out
}
