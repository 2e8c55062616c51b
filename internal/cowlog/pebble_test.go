package cowlog

import (
	"errors"
	"testing"

	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
)

func newTestDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestLog(t *testing.T) *PebbleLog {
	t.Helper()
	l, err := OpenPebbleLog(newTestDB(t), "system_a")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	return l
}

func collect(t *testing.T, l *PebbleLog) []Record {
	t.Helper()
	var out []Record
	if err := l.Scan(func(_ uint64, rec Record) bool {
		out = append(out, rec)
		return true
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestAppendRequiresInit(t *testing.T) {
	l := newTestLog(t)
	if err := l.AppendCopy(1, 2); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("want ErrNotInitialized, got %v", err)
	}
}

func TestAppendAndScan(t *testing.T) {
	l := newTestLog(t)
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := l.AppendCopy(0, 2); err != nil {
		t.Fatalf("append copy: %v", err)
	}
	if err := l.AppendRawWrite(3, []byte("data")); err != nil {
		t.Fatalf("append raw: %v", err)
	}
	if err := l.AppendZeroRange(8, 4); err != nil {
		t.Fatalf("append zero: %v", err)
	}
	if err := l.AppendLabel(0); err != nil {
		t.Fatalf("append label: %v", err)
	}

	recs := collect(t, l)
	if len(recs) != 4 {
		t.Fatalf("want 4 records, got %d", len(recs))
	}
	if recs[0].Kind != KindCopy || recs[0].Dst != 0 || recs[0].Src != 2 {
		t.Fatalf("copy mismatch: %+v", recs[0])
	}
	if recs[3].Kind != KindLabel || recs[3].Label != 0 {
		t.Fatalf("label mismatch: %+v", recs[3])
	}
}

func TestLabelsStrictlyIncreasing(t *testing.T) {
	l := newTestLog(t)
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := l.AppendLabel(0); err != nil {
		t.Fatalf("label 0: %v", err)
	}
	if err := l.AppendLabel(0); !errors.Is(err, ErrLabelOrder) {
		t.Fatalf("duplicate label 0 must fail, got %v", err)
	}
	if err := l.AppendLabel(3); err != nil {
		t.Fatalf("label 3: %v", err)
	}
	if err := l.AppendLabel(2); !errors.Is(err, ErrLabelOrder) {
		t.Fatalf("regressing label must fail, got %v", err)
	}
}

func TestInitAtLabelTruncatesTrailing(t *testing.T) {
	db := newTestDB(t)
	l, err := OpenPebbleLog(db, "p")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = l.AppendCopy(0, 1)
	if err := l.AppendLabel(0); err != nil {
		t.Fatalf("label 0: %v", err)
	}
	_ = l.AppendRawWrite(2, []byte("op0"))
	if err := l.AppendLabel(1); err != nil {
		t.Fatalf("label 1: %v", err)
	}
	// trailing partial work past the last durable label
	_ = l.AppendRawWrite(3, []byte("partial"))
	_ = l.AppendZeroRange(4, 1)

	// re-open as after a crash
	l2, err := OpenPebbleLog(db, "p")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l2.InitAtLabel(1); err != nil {
		t.Fatalf("init at label: %v", err)
	}
	var out []Record
	if err := l2.Scan(func(_ uint64, rec Record) bool {
		out = append(out, rec)
		return true
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("want 4 records after truncation, got %d: %+v", len(out), out)
	}
	if out[len(out)-1].Kind != KindLabel || out[len(out)-1].Label != 1 {
		t.Fatalf("log must end at label 1, got %+v", out[len(out)-1])
	}

	// appends continue after the label
	if err := l2.AppendRawWrite(3, []byte("op1")); err != nil {
		t.Fatalf("append after resume: %v", err)
	}
	if err := l2.AppendLabel(2); err != nil {
		t.Fatalf("label 2 after resume: %v", err)
	}
}

func TestInitAtLabelIdempotent(t *testing.T) {
	l := newTestLog(t)
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = l.AppendCopy(0, 1)
	_ = l.AppendLabel(0)
	_ = l.AppendRawWrite(1, []byte("x"))
	_ = l.AppendLabel(1)

	if err := l.InitAtLabel(1); err != nil {
		t.Fatalf("first: %v", err)
	}
	first := collect(t, l)
	if err := l.InitAtLabel(1); err != nil {
		t.Fatalf("second: %v", err)
	}
	second := collect(t, l)
	if len(first) != len(second) {
		t.Fatalf("InitAtLabel must be idempotent: %d vs %d records", len(first), len(second))
	}
}

func TestInitAtLabelMissing(t *testing.T) {
	l := newTestLog(t)
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = l.AppendLabel(0)
	if err := l.InitAtLabel(5); !errors.Is(err, ErrLabelNotFound) {
		t.Fatalf("want ErrLabelNotFound, got %v", err)
	}
}

func TestFinalizeBlocksAppends(t *testing.T) {
	l := newTestLog(t)
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = l.AppendLabel(0)
	if err := l.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := l.Finalize(); err != nil {
		t.Fatalf("finalize must be idempotent: %v", err)
	}
	if err := l.AppendCopy(0, 1); !errors.Is(err, ErrFinalized) {
		t.Fatalf("want ErrFinalized, got %v", err)
	}
}

func TestMetaSurvivesReopen(t *testing.T) {
	db := newTestDB(t)
	l, err := OpenPebbleLog(db, "p")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.InitFresh(); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = l.AppendCopy(0, 1)
	_ = l.AppendLabel(0)
	_ = l.AppendLabel(4)

	l2, err := OpenPebbleLog(db, "p")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	st, err := l2.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.LastLabel != 4 {
		t.Fatalf("last label = %d, want 4", st.LastLabel)
	}
	if st.Records != 3 {
		t.Fatalf("records = %d, want 3", st.Records)
	}
	if st.Finalized {
		t.Fatalf("log must not be finalized")
	}
}

func TestStatsEmptyLog(t *testing.T) {
	l := newTestLog(t)
	st, err := l.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Records != 0 || st.LastLabel != -1 || st.Finalized {
		t.Fatalf("unexpected stats for empty log: %+v", st)
	}
}
