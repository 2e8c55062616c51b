package partition

import (
	"fmt"

	"github.com/lighthouseQC/system-update-engine/internal/prefs"
)

// FreshMarker is the progress value of a partition whose source-copy phase
// has not completed: the log cannot be resumed and must be rebuilt.
const FreshMarker int64 = -1

// ProgressTracker persists the next-operation index for one partition.
//
// Ordering contract: Set(i) is called strictly after checkpoint label i has
// been durably appended. A crash between the two leaves the marker
// understating progress, which only costs a redundant re-append on resume;
// the marker must never overstate it.
type ProgressTracker struct {
	store prefs.Store
	key   string
}

// NewProgressTracker binds a tracker to the partition's marker key.
func NewProgressTracker(store prefs.Store, partitionName string) *ProgressTracker {
	return &ProgressTracker{
		store: store,
		key:   fmt.Sprintf("partition/%s/next-operation-index", partitionName),
	}
}

// Get returns the persisted marker, FreshMarker when absent.
func (t *ProgressTracker) Get() (int64, error) {
	v, ok, err := t.store.GetInt64(t.key)
	if err != nil {
		return FreshMarker, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok {
		return FreshMarker, nil
	}
	return v, nil
}

// Set persists the marker.
func (t *ProgressTracker) Set(v int64) error {
	if err := t.store.SetInt64(t.key, v); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Reset restores the fresh-log marker, run on writer teardown.
func (t *ProgressTracker) Reset() error { return t.Set(FreshMarker) }
