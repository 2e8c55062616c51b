// Package applyrun exposes the shared Run entrypoint used by the CLI to
// apply one partition plan, handling lifecycle, interruption, and resume.
//
// Example:
//
//	opts := applyrun.Options{PlanPath: "plan.yaml", DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = applyrun.Run(ctx, opts)
package applyrun
