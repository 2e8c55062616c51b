package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	applyrun "github.com/lighthouseQC/system-update-engine/internal/cmd/apply"
	cfgpkg "github.com/lighthouseQC/system-update-engine/internal/config"
	"github.com/lighthouseQC/system-update-engine/internal/runtime"
	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
	logpkg "github.com/lighthouseQC/system-update-engine/pkg/log"
)

func main() {
	// initialize logger for CLI
	level := os.Getenv("UPDATELOG_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.SetDefaultLogger(logger)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "updatelog",
		Short: "Partition change-log CLI",
		Long:  "updatelog writes partition update plans into a durable change log with resumable checkpoints.",
	}

	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newFinalizeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges file config, env overlay, and the data-dir flag.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(cfgPath)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}

func fsyncFromConfig(cfg cfgpkg.Config) (pebblestore.FsyncMode, time.Duration, error) {
	mode := pebblestore.FsyncModeAlways
	if cfg.Fsync != "" {
		m, err := pebblestore.ParseFsyncMode(cfg.Fsync)
		if err != nil {
			return 0, 0, err
		}
		mode = m
	}
	return mode, time.Duration(cfg.FsyncIntervalMs) * time.Millisecond, nil
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Config file (.json/.yaml)")
	cmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
}

func newApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a partition plan to the change log",
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, _ := cmd.Flags().GetString("plan")
			resume, _ := cmd.Flags().GetBool("resume")
			metricsAddr, _ := cmd.Flags().GetString("metrics")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if fsyncMode, _ := cmd.Flags().GetString("fsync"); fsyncMode != "" {
				cfg.Fsync = fsyncMode
			}
			if ms, _ := cmd.Flags().GetInt("fsync-interval-ms"); cmd.Flags().Changed("fsync-interval-ms") {
				cfg.FsyncIntervalMs = ms
			}
			mode, interval, err := fsyncFromConfig(cfg)
			if err != nil {
				return err
			}
			if logLevel != "" {
				_ = os.Setenv("UPDATELOG_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("UPDATELOG_LOG_FORMAT", logFormat)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := applyrun.Run(ctx, applyrun.Options{
				PlanPath:      planPath,
				DataDir:       cfg.DataDir,
				Resume:        resume,
				Fsync:         mode,
				FsyncInterval: interval,
				MetricsAddr:   metricsAddr,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("apply error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("plan", "", "Plan file (.json/.yaml) describing the partition operations")
	cmd.Flags().Bool("resume", false, "Resume from the persisted progress marker")
	cmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	cmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	cmd.Flags().String("metrics", "", "Serve Prometheus metrics on this address (optional)")
	cmd.Flags().String("log-level", os.Getenv("UPDATELOG_LOG_LEVEL"), "Log level: debug|info|warn|error")
	cmd.Flags().String("log-format", os.Getenv("UPDATELOG_LOG_FORMAT"), "Log format: text|json (default text)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func openRuntime(cmd *cobra.Command) (*runtime.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	mode, interval, err := fsyncFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return runtime.Open(runtime.Options{
		DataDir:       filepath.Join(cfg.DataDir, "store"),
		Fsync:         mode,
		FsyncInterval: interval,
		Config:        cfg,
	})
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a partition's durable progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("partition")
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := rt.Status(name)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("partition", "", "Partition name")
	_ = cmd.MarkFlagRequired("partition")
	return cmd
}

func newFinalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize a partition's change log and reset its progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("partition")
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.FinalizePartition(name); err != nil {
				return err
			}
			fmt.Printf("partition %s finalized\n", name)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("partition", "", "Partition name")
	_ = cmd.MarkFlagRequired("partition")
	return cmd
}
