// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// snapshots, batches, range deletes, and minimal metrics hooks. Both the
// change log and the preference store persist through this wrapper.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	// Durability barrier regardless of fsync policy
//	b2 := db.NewBatch()
//	_ = b2.Set([]byte("label"), []byte("7"), nil)
//	_ = db.CommitBatchSync(context.Background(), b2)
//	b2.Close()
package pebblestore
