package prefs

import (
	"testing"

	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"pebble": NewPebbleStore(db),
		"memory": NewMemoryStore(),
	}
}

func TestRoundtrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.GetInt64("missing"); err != nil || ok {
				t.Fatalf("absent key: ok=%v err=%v", ok, err)
			}
			if err := s.SetInt64("next-op", 7); err != nil {
				t.Fatalf("set: %v", err)
			}
			v, ok, err := s.GetInt64("next-op")
			if err != nil || !ok || v != 7 {
				t.Fatalf("get: v=%d ok=%v err=%v", v, ok, err)
			}
			if err := s.SetInt64("next-op", -1); err != nil {
				t.Fatalf("set negative: %v", err)
			}
			v, ok, err = s.GetInt64("next-op")
			if err != nil || !ok || v != -1 {
				t.Fatalf("negative roundtrip: v=%d ok=%v err=%v", v, ok, err)
			}
			if err := s.Delete("next-op"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := s.GetInt64("next-op"); ok {
				t.Fatalf("key should be gone")
			}
			if err := s.Delete("next-op"); err != nil {
				t.Fatalf("deleting absent key must not error: %v", err)
			}
		})
	}
}

func TestPebblePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := NewPebbleStore(db).SetInt64("partition/a/next-operation-index", 12); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = db.Close()

	db2, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = db2.Close() })
	v, ok, err := NewPebbleStore(db2).GetInt64("partition/a/next-operation-index")
	if err != nil || !ok || v != 12 {
		t.Fatalf("after reopen: v=%d ok=%v err=%v", v, ok, err)
	}
}
