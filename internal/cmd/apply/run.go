package applyrun

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cfgpkg "github.com/lighthouseQC/system-update-engine/internal/config"
	"github.com/lighthouseQC/system-update-engine/internal/partition"
	"github.com/lighthouseQC/system-update-engine/internal/runtime"
	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
	logpkg "github.com/lighthouseQC/system-update-engine/pkg/log"
)

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

type Options struct {
	PlanPath string
	DataDir  string
	// Resume continues from the persisted progress marker instead of
	// rebuilding the change log.
	Resume        bool
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	// MetricsAddr, when set, serves Prometheus storage metrics on /metrics.
	MetricsAddr string
	Config      cfgpkg.Config
}

// Run applies one partition plan and blocks until it completes or ctx is
// cancelled. Cancellation between operations leaves the log and marker
// resumable; a later Run with Resume picks up at the last checkpoint.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, err := LoadPlan(opts.PlanPath)
	if err != nil {
		return err
	}
	ops, err := plan.Ops()
	if err != nil {
		return err
	}

	logCfg := &logpkg.Config{
		Level:  getenvDefault("UPDATELOG_LOG_LEVEL", "info"),
		Format: getenvDefault("UPDATELOG_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	var hook pebblestore.MetricsHook
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		hook = pebblestore.NewPrometheusMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		msrv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		go func() {
			if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				procLogger.Warn("metrics listener failed", logpkg.Err(err))
			}
		}()
		defer func() {
			shctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = msrv.Shutdown(shctx)
		}()
	}

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
		Metrics:       hook,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	source, err := partition.OpenFileSource(plan.SourceImage, opts.Config.BlockSize)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	defer source.Close()

	w, err := rt.OpenPartitionWriter(runtime.WriterSpec{
		Partition:    plan.Partition,
		TotalBlocks:  plan.TotalBlocks,
		SourceCopies: SourceCopies(ops),
		Source:       source,
	})
	if err != nil {
		return err
	}
	if err := w.Init(opts.Resume); err != nil {
		return err
	}

	start := w.NextOperation()
	procLogger.Info("applying plan",
		logpkg.Str("partition", plan.Partition),
		logpkg.Str("plan", opts.PlanPath),
		logpkg.Int("operations", len(ops)),
		logpkg.Int64("start", start))

	for i := start; i < int64(len(ops)); i++ {
		// The gap between two checkpoints is the only safe interruption
		// point; an abandoned writer stays resumable.
		if sctx.Err() != nil {
			procLogger.Info("interrupted, progress retained",
				logpkg.Int64("next_op", w.NextOperation()))
			return sctx.Err()
		}
		if err := w.ApplyOperation(ops[i]); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		if err := w.Checkpoint(i + 1); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	procLogger.Info("plan applied", logpkg.Str("partition", plan.Partition))
	return nil
}
