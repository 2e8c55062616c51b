// Package runtime wires storage, config, and the partition-writer factory
// into a single update-engine instance. It exposes Open/Close, basic health
// checks, and helpers to open write sessions and inspect durable progress.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	w, _ := rt.OpenPartitionWriter(runtime.WriterSpec{Partition: "system_a", TotalBlocks: 1024, Source: src})
//	defer w.Close()
//	_ = w.Init(resume)
package runtime
