// Package config provides loading and environment overlay for the change-log
// writer's configuration. It exposes a Default() baseline, JSON/YAML file
// loading, and an UPDATELOG_* env overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/updatelog.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{DataDir: cfg.DataDir, Config: cfg})
//	defer rt.Close()
package config
