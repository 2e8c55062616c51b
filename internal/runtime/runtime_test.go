package runtime

import (
	"bytes"
	"context"
	"testing"

	"github.com/lighthouseQC/system-update-engine/internal/blockdiff"
	cfgpkg "github.com/lighthouseQC/system-update-engine/internal/config"
	"github.com/lighthouseQC/system-update-engine/internal/partition"
	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
)

const testBlockSize = 4096

func openTestRuntime(t *testing.T, dir string) *Runtime {
	t.Helper()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenCloseHealth(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.BlockSize = 1000
	if _, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg}); err == nil {
		t.Fatal("invalid block size accepted")
	}
}

func TestOpenPartitionWriterEndToEnd(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	source := partition.NewMemorySource(8, testBlockSize, 0x01)

	w, err := rt.OpenPartitionWriter(WriterSpec{
		Partition:   "system_a",
		TotalBlocks: 8,
		SourceCopies: []blockdiff.Op{
			{Kind: blockdiff.OpSourceCopy, Src: blockdiff.Range{Start: 0, Count: 2}, Dst: blockdiff.Range{Start: 4, Count: 2}},
		},
		Source: source,
	})
	if err != nil {
		t.Fatalf("OpenPartitionWriter: %v", err)
	}
	if err := w.Init(false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	op := blockdiff.Op{
		Kind:    blockdiff.OpReplace,
		Dst:     blockdiff.Range{Start: 7, Count: 1},
		Payload: bytes.Repeat([]byte{0xEE}, testBlockSize),
	}
	if err := w.ApplyOperation(op); err != nil {
		t.Fatalf("ApplyOperation: %v", err)
	}
	if err := w.Checkpoint(1); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	st, err := rt.Status("system_a")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Registered {
		t.Fatal("partition not registered")
	}
	if st.Meta.BlockSize != testBlockSize || st.Meta.TotalBlocks != 8 {
		t.Fatalf("meta = %+v", st.Meta)
	}
	if st.Marker != 1 {
		t.Fatalf("marker = %d, want 1", st.Marker)
	}
	if st.Log.LastLabel != 2 {
		t.Fatalf("last label = %d, want 2", st.Log.LastLabel)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	st, err = rt.Status("system_a")
	if err != nil {
		t.Fatalf("Status after close: %v", err)
	}
	if st.Marker != partition.FreshMarker {
		t.Fatalf("marker after close = %d, want %d", st.Marker, partition.FreshMarker)
	}
	if !st.Log.Finalized {
		t.Fatal("log not finalized after close")
	}
}

func TestOpenPartitionWriterRejectsGeometryChange(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	source := partition.NewMemorySource(8, testBlockSize, 0x01)

	if _, err := rt.OpenPartitionWriter(WriterSpec{Partition: "vendor_b", TotalBlocks: 8, Source: source}); err != nil {
		t.Fatalf("OpenPartitionWriter: %v", err)
	}
	if _, err := rt.OpenPartitionWriter(WriterSpec{Partition: "vendor_b", TotalBlocks: 16, Source: source}); err == nil {
		t.Fatal("geometry change accepted")
	}
}

func TestFinalizePartition(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	source := partition.NewMemorySource(4, testBlockSize, 0x01)

	w, err := rt.OpenPartitionWriter(WriterSpec{Partition: "boot", TotalBlocks: 4, Source: source})
	if err != nil {
		t.Fatalf("OpenPartitionWriter: %v", err)
	}
	if err := w.Init(false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := w.Checkpoint(2); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	// The writer is abandoned mid-update; finalize closes the partition out
	// without a write session.
	if err := rt.FinalizePartition("boot"); err != nil {
		t.Fatalf("FinalizePartition: %v", err)
	}
	st, err := rt.Status("boot")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Marker != partition.FreshMarker {
		t.Fatalf("marker = %d, want fresh", st.Marker)
	}
	if !st.Log.Finalized {
		t.Fatal("log not finalized")
	}
}

func TestStatusUnknownPartition(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	st, err := rt.Status("nope")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Registered {
		t.Fatal("unknown partition reported as registered")
	}
	if st.Marker != partition.FreshMarker {
		t.Fatalf("marker = %d, want fresh", st.Marker)
	}
	if st.Log.Records != 0 {
		t.Fatalf("records = %d, want 0", st.Log.Records)
	}
}
