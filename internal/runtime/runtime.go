package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lighthouseQC/system-update-engine/internal/blockdiff"
	cfgpkg "github.com/lighthouseQC/system-update-engine/internal/config"
	"github.com/lighthouseQC/system-update-engine/internal/cowlog"
	"github.com/lighthouseQC/system-update-engine/internal/partition"
	"github.com/lighthouseQC/system-update-engine/internal/prefs"
	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
	"github.com/lighthouseQC/system-update-engine/pkg/id"
	logpkg "github.com/lighthouseQC/system-update-engine/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	// FsyncInterval applies when Fsync is FsyncModeInterval.
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Logger is optional; the process default is used when nil.
	Logger logpkg.Logger
	// Metrics is an optional storage metrics hook.
	Metrics pebblestore.MetricsHook
}

// Runtime wires storage, config, and the partition-writer factory for a
// single update-engine instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	logger logpkg.Logger
	ids    *id.Generator
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.GetDefaultLogger()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Logger:        logger,
		Metrics:       opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		db:     db,
		config: opts.Config,
		logger: logger.WithComponent("runtime"),
		ids:    id.NewGenerator(),
	}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage round trip.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// WriterSpec describes one partition write session.
type WriterSpec struct {
	Partition   string
	TotalBlocks uint64
	// SourceCopies is the SourceCopy prefix of the operation list.
	SourceCopies []blockdiff.Op
	// Source reads pre-update partition data.
	Source partition.BlockSource
}

// OpenPartitionWriter registers the partition's geometry, opens its change
// log and progress marker, and returns an uninitialized writer tagged with a
// fresh session id. The caller drives Init/Apply/Checkpoint/Close.
func (r *Runtime) OpenPartitionWriter(spec WriterSpec) (*partition.Writer, error) {
	if _, err := partition.EnsureMeta(r.db, spec.Partition, r.config.BlockSize, spec.TotalBlocks); err != nil {
		return nil, err
	}
	log, err := cowlog.OpenPebbleLog(r.db, spec.Partition)
	if err != nil {
		return nil, fmt.Errorf("open change log for %q: %w", spec.Partition, err)
	}
	sessionID := r.ids.Next().String()
	w, err := partition.NewWriter(partition.Config{
		Partition:    spec.Partition,
		BlockSize:    r.config.BlockSize,
		TotalBlocks:  spec.TotalBlocks,
		SourceCopies: spec.SourceCopies,
		Log:          log,
		Progress:     prefs.NewPebbleStore(r.db),
		Source:       spec.Source,
		Logger:       r.logger,
		SessionID:    sessionID,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("opened partition writer",
		logpkg.Str("partition", spec.Partition),
		logpkg.Str("session", sessionID),
		logpkg.Uint64("total_blocks", spec.TotalBlocks))
	return w, nil
}

// PartitionStatus is a read-only snapshot of one partition's durable state.
type PartitionStatus struct {
	Meta       partition.Meta
	Registered bool
	// Marker is the persisted next-operation index, -1 when fresh.
	Marker int64
	Log    cowlog.Stats
}

// Status inspects a partition's meta, progress marker, and log without
// opening a write session.
func (r *Runtime) Status(name string) (PartitionStatus, error) {
	var st PartitionStatus
	meta, ok, err := partition.GetMeta(r.db, name)
	if err != nil {
		return st, err
	}
	st.Meta = meta
	st.Registered = ok

	st.Marker, err = partition.NewProgressTracker(prefs.NewPebbleStore(r.db), name).Get()
	if err != nil {
		return st, err
	}

	log, err := cowlog.OpenPebbleLog(r.db, name)
	if err != nil {
		return st, fmt.Errorf("open change log for %q: %w", name, err)
	}
	st.Log, err = log.Stats()
	if err != nil {
		return st, err
	}
	return st, nil
}

// FinalizePartition closes out a partition without a write session: the
// change log is finalized and the progress marker resets to fresh.
func (r *Runtime) FinalizePartition(name string) error {
	log, err := cowlog.OpenPebbleLog(r.db, name)
	if err != nil {
		return fmt.Errorf("open change log for %q: %w", name, err)
	}
	if err := partition.NewProgressTracker(prefs.NewPebbleStore(r.db), name).Reset(); err != nil {
		return err
	}
	return log.Finalize()
}

// PrefStore exposes the shared preference store.
func (r *Runtime) PrefStore() prefs.Store { return prefs.NewPebbleStore(r.db) }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
