package partition

import "errors"

// Failure classes surfaced by the writer. Nothing here is retried internally:
// every failure is a hard stop for the current partition, and the caller's
// recovery path is a fresh Init(resume=true) from the last durable checkpoint.
var (
	// ErrConfig marks an invalid writer configuration or a call that the
	// current state machine phase does not admit.
	ErrConfig = errors.New("partition: invalid configuration")
	// ErrSourceRead marks a short or failed read from the pre-update image.
	ErrSourceRead = errors.New("partition: source read failed")
	// ErrLogAppend marks a rejected change-log write.
	ErrLogAppend = errors.New("partition: log append failed")
	// ErrPersistence marks an unavailable progress-marker store.
	ErrPersistence = errors.New("partition: progress store unavailable")
	// ErrHazard marks malformed or unsatisfiable operation ranges.
	ErrHazard = errors.New("partition: hazard resolution failed")
)
