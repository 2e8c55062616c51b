package partition

import (
	"errors"
	"fmt"

	"github.com/lighthouseQC/system-update-engine/internal/blockdiff"
	"github.com/lighthouseQC/system-update-engine/internal/cowlog"
	"github.com/lighthouseQC/system-update-engine/internal/prefs"
	logpkg "github.com/lighthouseQC/system-update-engine/pkg/log"
)

// phase is the writer's lifecycle position. The source-copy phase runs to
// completion inside Init, so externally the machine only exposes whether the
// writer accepts operations yet, still does, or never will again.
type phase int

const (
	phaseUninitialized phase = iota
	phaseSteady
	phaseFinalized
)

// Config assembles a Writer's collaborators. Log, Progress, and Source are
// injected so tests can run against in-memory fakes.
type Config struct {
	// Partition names the partition being written, and keys its marker.
	Partition string
	// BlockSize in bytes, matching the payload's block granularity.
	BlockSize int
	// TotalBlocks bounds destination/source extents. Zero skips bounds checks.
	TotalBlocks uint64
	// SourceCopies is the ordered SourceCopy prefix of the operation list,
	// converted and committed wholesale during a fresh Init.
	SourceCopies []blockdiff.Op
	// Log is the append-only change log session.
	Log cowlog.Session
	// Progress persists the next-operation marker.
	Progress prefs.Store
	// Source reads pre-update blocks for staged copies and
	// replace-from-source operations.
	Source BlockSource
	// Logger is optional; a quiet logger is used when nil.
	Logger logpkg.Logger
	// SessionID tags log output for correlating resumed sessions. Optional.
	SessionID string
}

// Writer converts diff operations for one partition into durable change-log
// records with checkpoint labels, and resumes exactly where a previous
// session stopped.
//
// One writer owns the partition's log session and progress marker for its
// whole lifetime; the surrounding pipeline guarantees there is never a
// concurrent writer, so no locking happens here.
type Writer struct {
	name        string
	blockSize   int
	totalBlocks uint64
	copies      []blockdiff.Op

	log     cowlog.Session
	tracker *ProgressTracker
	source  BlockSource
	logger  logpkg.Logger

	phase      phase
	lastMarker int64 // mirror of the persisted marker
	lastLabel  int64 // highest label appended or resumed at, -1 before any
	closed     bool
}

// NewWriter validates cfg and builds an uninitialized writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Partition == "" {
		return nil, fmt.Errorf("%w: empty partition name", ErrConfig)
	}
	if cfg.BlockSize <= 0 || cfg.BlockSize&(cfg.BlockSize-1) != 0 {
		return nil, fmt.Errorf("%w: block size %d is not a positive power of two", ErrConfig, cfg.BlockSize)
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("%w: nil change log", ErrConfig)
	}
	if cfg.Progress == nil {
		return nil, fmt.Errorf("%w: nil progress store", ErrConfig)
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: nil block source", ErrConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NewNullOutput()))
	}
	logger = logger.With(logpkg.Component("partition"), logpkg.Str("partition", cfg.Partition))
	if cfg.SessionID != "" {
		logger = logger.With(logpkg.Str("session", cfg.SessionID))
	}
	return &Writer{
		name:        cfg.Partition,
		blockSize:   cfg.BlockSize,
		totalBlocks: cfg.TotalBlocks,
		copies:      cfg.SourceCopies,
		log:         cfg.Log,
		tracker:     NewProgressTracker(cfg.Progress, cfg.Partition),
		source:      cfg.Source,
		logger:      logger,
		lastMarker:  FreshMarker,
		lastLabel:   -1,
	}, nil
}

// Init prepares the log for writing. With resume=false it rebuilds from
// scratch: the log is re-initialized, all SourceCopy operations are
// converted and committed, and label 0 marks the end of the phase. With
// resume=true and a non-fresh marker m, the log re-opens positioned after
// label m+1 and conversion is skipped entirely; a fresh marker falls back to
// the non-resume path.
func (w *Writer) Init(resume bool) error {
	if w.phase != phaseUninitialized {
		return fmt.Errorf("%w: init called twice", ErrConfig)
	}

	if resume {
		marker, err := w.tracker.Get()
		if err != nil {
			return err
		}
		if marker >= 0 {
			// Label numbering is offset by one: label 0 closes the
			// source-copy phase, label m+1 closes operation m.
			label := uint64(marker) + 1
			err := w.log.InitAtLabel(label)
			if errors.Is(err, cowlog.ErrLabelNotFound) && marker == 0 {
				// Marker 0 is set by the fresh path before any checkpoint,
				// so only the source-copy label may exist yet.
				label = 0
				err = w.log.InitAtLabel(label)
			}
			if err != nil {
				return fmt.Errorf("%w: resume at label %d: %w", ErrLogAppend, label, err)
			}
			w.lastMarker = marker
			w.lastLabel = int64(label)
			w.phase = phaseSteady
			w.logger.Info("resumed change log",
				logpkg.Int64("next_op", marker),
				logpkg.Uint64("label", label))
			return nil
		}
		w.logger.Info("resume requested but log is fresh, rebuilding")
	}

	if err := w.log.InitFresh(); err != nil {
		return fmt.Errorf("%w: %w", ErrLogAppend, err)
	}
	if err := w.tracker.Set(FreshMarker); err != nil {
		return err
	}

	recs, err := blockdiff.Convert(w.copies, w.totalBlocks, w.blockSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHazard, err)
	}
	if err := w.writeRecords(recs); err != nil {
		return err
	}
	if err := w.log.AppendLabel(0); err != nil {
		return fmt.Errorf("%w: %w", ErrLogAppend, err)
	}
	if err := w.tracker.Set(0); err != nil {
		return err
	}
	w.lastMarker = 0
	w.lastLabel = 0
	w.phase = phaseSteady
	w.logger.Info("source-copy phase committed",
		logpkg.Int("records", len(recs)))
	return nil
}

// ApplyOperation commits one steady-state operation's records. SourceCopy
// operations are accepted and ignored: their records were committed during
// Init.
func (w *Writer) ApplyOperation(op blockdiff.Op) error {
	if w.phase != phaseSteady {
		return fmt.Errorf("%w: apply before init or after finalize", ErrConfig)
	}
	if op.Kind == blockdiff.OpSourceCopy {
		return nil
	}
	recs, err := blockdiff.Convert([]blockdiff.Op{op}, w.totalBlocks, w.blockSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHazard, err)
	}
	return w.writeRecords(recs)
}

// Checkpoint durably marks operation nextOpIndex complete: label first, then
// marker, so a crash between the two can only understate progress.
func (w *Writer) Checkpoint(nextOpIndex int64) error {
	if w.phase != phaseSteady {
		return fmt.Errorf("%w: checkpoint before init or after finalize", ErrConfig)
	}
	if nextOpIndex < w.lastMarker {
		return fmt.Errorf("%w: checkpoint %d would regress marker %d", ErrConfig, nextOpIndex, w.lastMarker)
	}
	if err := w.log.AppendLabel(uint64(nextOpIndex) + 1); err != nil {
		return fmt.Errorf("%w: %w", ErrLogAppend, err)
	}
	if err := w.tracker.Set(nextOpIndex); err != nil {
		return err
	}
	w.lastMarker = nextOpIndex
	w.lastLabel = nextOpIndex + 1
	w.logger.Debug("checkpoint",
		logpkg.Int64("next_op", nextOpIndex),
		logpkg.Int64("label", nextOpIndex+1))
	return nil
}

// Flush appends the pending label for the currently persisted marker. If that
// label is already in the log (Checkpoint emits it eagerly), Flush is a no-op.
func (w *Writer) Flush() error {
	if w.phase != phaseSteady {
		return fmt.Errorf("%w: flush before init or after finalize", ErrConfig)
	}
	marker, err := w.tracker.Get()
	if err != nil {
		return err
	}
	if marker < 0 {
		return fmt.Errorf("%w: flush with fresh marker", ErrConfig)
	}
	want := marker + 1
	if w.lastLabel >= want {
		return nil
	}
	if err := w.log.AppendLabel(uint64(want)); err != nil {
		return fmt.Errorf("%w: %w", ErrLogAppend, err)
	}
	w.lastLabel = want
	return nil
}

// NextOperation returns the index of the first operation not yet covered by
// a checkpoint. Valid once Init has succeeded.
func (w *Writer) NextOperation() int64 { return w.lastMarker }

// Close tears the writer down: the marker resets to fresh and the log
// finalizes. Safe from any phase, including after a failed Init, and runs its
// work exactly once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.phase = phaseFinalized

	markerErr := w.tracker.Reset()
	logErr := w.log.Finalize()
	if markerErr != nil {
		return markerErr
	}
	if logErr != nil {
		return fmt.Errorf("%w: finalize: %w", ErrLogAppend, logErr)
	}
	w.logger.Info("writer finalized")
	return nil
}

// writeRecords commits converted records in order, resolving staged copies
// and source-backed replaces through the block source.
func (w *Writer) writeRecords(recs []blockdiff.Record) error {
	for _, r := range recs {
		var err error
		switch r.Kind {
		case blockdiff.RecordCopy:
			err = w.log.AppendCopy(r.Dst, r.Src)
		case blockdiff.RecordReplaceSource:
			var data []byte
			data, err = w.source.ReadBlocks(r.Src, 1)
			if err != nil {
				return fmt.Errorf("%w: block %d: %w", ErrSourceRead, r.Src, err)
			}
			if len(data) != w.blockSize {
				return fmt.Errorf("%w: block %d: got %d of %d bytes", ErrSourceRead, r.Src, len(data), w.blockSize)
			}
			err = w.log.AppendRawWrite(r.Dst, data)
		case blockdiff.RecordRawWrite:
			err = w.log.AppendRawWrite(r.Dst, r.Data)
		case blockdiff.RecordZeroRange:
			err = w.log.AppendZeroRange(r.Dst, r.Count)
		default:
			return fmt.Errorf("%w: unknown record kind %v", ErrHazard, r.Kind)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLogAppend, err)
		}
	}
	return nil
}
